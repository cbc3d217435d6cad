package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cris-imc/invitaciones-sub001/internal/middleware"
	"github.com/cris-imc/invitaciones-sub001/internal/models"
	"github.com/cris-imc/invitaciones-sub001/pkg/response"
	"github.com/cris-imc/invitaciones-sub001/pkg/storage"
)

// ObjectStore uploads processed media and hands back a stable public URL.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// InvitationStore resolves invitations for ownership checks.
type InvitationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
}

// Handler handles the generic media upload endpoints used by the invitation
// wizard (cover photo, gallery images, background music).
type Handler struct {
	pipeline    *Pipeline
	store       ObjectStore
	s3          *storage.S3
	invitations InvitationStore
	maxSize     int64
	logger      *zap.Logger
}

// NewHandler creates a media handler. s3 may be nil when storage is not
// configured; uploads then fail with a configuration error.
func NewHandler(pipeline *Pipeline, s3 *storage.S3, invitations InvitationStore, maxSize int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	var store ObjectStore
	if s3 != nil {
		store = s3
	}
	return &Handler{pipeline: pipeline, store: store, s3: s3, invitations: invitations, maxSize: maxSize, logger: logger}
}

// PresignRequest is the body for POST /api/upload/presign.
type PresignRequest struct {
	InvitationID string `json:"invitationId" binding:"required,uuid"`
	Filename     string `json:"filename" binding:"required"`
	ContentType  string `json:"contentType"`
	FileSize     int64  `json:"fileSize" binding:"required,gt=0"`
}

// Upload handles POST /api/upload (host only, multipart). Form fields:
// file, kind (cover|gallery|audio), invitationId, and for images the
// optional crop parameters cropX, cropY, cropWidth, cropHeight, rotation.
func (h *Handler) Upload(c *gin.Context) {
	if h.store == nil {
		response.Internal(c, "media storage not configured")
		return
	}
	invitationID, err := uuid.Parse(c.PostForm("invitationId"))
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}
	if !h.ownsInvitation(c, invitationID) {
		return
	}
	kind := c.PostForm("kind")

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}

	switch kind {
	case "audio":
		h.uploadAudio(c, invitationID, file.Filename, file)
	case "cover", "gallery":
		h.uploadImage(c, invitationID, kind, file)
	default:
		response.BadRequest(c, "kind must be cover, gallery or audio")
	}
}

func (h *Handler) uploadImage(c *gin.Context, invitationID uuid.UUID, kind string, file *multipart.FileHeader) {
	if !storage.IsImageType(file.Header.Get("Content-Type"), file.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png and webp images allowed")
		return
	}

	rc, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	opts := cropOptions(c)
	prepared, err := h.pipeline.Prepare(rc, file.Size, opts)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Reason)
			return
		}
		h.logger.Error("image processing failed", zap.Error(err))
		response.Internal(c, "failed to process image")
		return
	}

	filename := uuid.New().String() + ".jpg"
	key := storage.CoverKey(invitationID.String(), filename)
	if kind == "gallery" {
		key = storage.GalleryKey(invitationID.String(), filename)
	}

	url, err := h.store.PutObject(c.Request.Context(), key, prepared.ContentType,
		bytes.NewReader(prepared.Data), int64(len(prepared.Data)))
	if err != nil {
		h.logger.Error("media upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "upload failed, please retry")
		return
	}

	response.OK(c, gin.H{
		"url":    url,
		"width":  prepared.Width,
		"height": prepared.Height,
	})
}

func (h *Handler) uploadAudio(c *gin.Context, invitationID uuid.UUID, filename string, file *multipart.FileHeader) {
	if h.maxSize > 0 && file.Size > h.maxSize {
		response.BadRequest(c, "file exceeds the size limit")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.IsAudioType(contentType, filename) {
		response.BadRequest(c, "invalid file type: only mp3, ogg and m4a audio allowed")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(filename)
	}

	rc, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	key := storage.AudioKey(invitationID.String(), filename)
	url, err := h.store.PutObject(c.Request.Context(), key, contentType, rc, file.Size)
	if err != nil {
		h.logger.Error("audio upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "upload failed, please retry")
		return
	}
	response.OK(c, gin.H{"url": url})
}

// Presign handles POST /api/upload/presign (host only). Issues a pre-signed
// PUT URL so large audio files upload straight to the bucket.
func (h *Handler) Presign(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage not configured")
		return
	}
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !h.ownsInvitation(c, uuid.MustParse(req.InvitationID)) {
		return
	}
	if h.maxSize > 0 && req.FileSize > h.maxSize {
		response.BadRequest(c, "file exceeds the size limit")
		return
	}
	if !storage.IsAudioType(req.ContentType, req.Filename) {
		response.BadRequest(c, "invalid file type: only mp3, ogg and m4a audio allowed")
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}
	key := storage.AudioKey(req.InvitationID, req.Filename)
	expire := h.s3.PresignExpire()
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType, expire)
	if err != nil {
		h.logger.Error("presign upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to create upload URL")
		return
	}
	response.OK(c, gin.H{
		"uploadUrl": url,
		"key":       key,
		"publicUrl": h.s3.PublicObjectURL(key),
		"expiresIn": int(expire.Seconds()),
	})
}

// ownsInvitation verifies the authenticated host owns the invitation,
// writing the error response when not.
func (h *Handler) ownsInvitation(c *gin.Context, invitationID uuid.UUID) bool {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	inv, err := h.invitations.GetByID(c.Request.Context(), invitationID)
	if err != nil {
		response.NotFound(c, "invitation not found")
		return false
	}
	if inv.OwnerID != userID {
		response.Forbidden(c, "not the owner of this invitation")
		return false
	}
	return true
}

// cropOptions reads the optional crop form fields. Absent or malformed
// fields mean no crop stage.
func cropOptions(c *gin.Context) Options {
	var opts Options
	w, errW := strconv.Atoi(c.PostForm("cropWidth"))
	hgt, errH := strconv.Atoi(c.PostForm("cropHeight"))
	if errW != nil || errH != nil {
		return opts
	}
	x, _ := strconv.Atoi(c.PostForm("cropX"))
	y, _ := strconv.Atoi(c.PostForm("cropY"))
	opts.Crop = &CropRect{X: x, Y: y, Width: w, Height: hgt}
	opts.Rotation, _ = strconv.ParseFloat(c.PostForm("rotation"), 64)
	return opts
}
