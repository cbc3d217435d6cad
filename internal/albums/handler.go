// Package albums implements the collaborative event album: guest photo
// uploads gated on the event date, host moderation, and the public gallery.
package albums

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cris-imc/invitaciones-sub001/internal/identity"
	"github.com/cris-imc/invitaciones-sub001/internal/media"
	"github.com/cris-imc/invitaciones-sub001/internal/middleware"
	"github.com/cris-imc/invitaciones-sub001/internal/models"
	"github.com/cris-imc/invitaciones-sub001/pkg/response"
	"github.com/cris-imc/invitaciones-sub001/pkg/storage"
)

// Store is the album persistence surface the handler needs.
type Store interface {
	GetByInvitation(ctx context.Context, invitationID uuid.UUID) (*models.Album, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Album, error)
	UpdateSettings(ctx context.Context, invitationID uuid.UUID, uploadsEnabled, moderation bool) (*models.Album, error)
	CreatePhoto(ctx context.Context, p *models.Photo) error
	GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	ListPhotos(ctx context.Context, albumID uuid.UUID, onlyApproved bool) ([]models.Photo, error)
	SetPhotoApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Photo, error)
	DeletePhoto(ctx context.Context, id uuid.UUID) (bool, error)
}

// InvitationStore resolves invitations by slug for host routes. Public
// routes go through the identity resolver instead, so drafts and paused
// invitations stay invisible to guests but reachable to their owner.
type InvitationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	GetBySlug(ctx context.Context, slug string) (*models.Invitation, error)
}

// ObjectStore uploads album photos and removes rejected ones.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	DeleteObject(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

// InvitationResolver maps public slugs to live invitations.
type InvitationResolver interface {
	ResolveInvitation(ctx context.Context, slug string) (*models.Invitation, error)
}

// SettingsRequest is the body for PATCH /api/invitations/:slug/album.
type SettingsRequest struct {
	UploadsEnabled *bool `json:"permitirSubida" binding:"required"`
	Moderation     *bool `json:"moderacion" binding:"required"`
}

// ModerateRequest is the body for PATCH /api/photos/:id/moderate.
type ModerateRequest struct {
	Approved *bool `json:"aprobada" binding:"required"`
}

// Handler handles album HTTP endpoints.
type Handler struct {
	store       Store
	invitations InvitationStore
	resolver    InvitationResolver
	pipeline    *media.Pipeline
	objects     ObjectStore
	logger      *zap.Logger
	now         func() time.Time
}

// NewHandler creates an albums handler. objects may be nil when storage is
// not configured; guest uploads then fail with a configuration error.
func NewHandler(store Store, invitations InvitationStore, resolver InvitationResolver, pipeline *media.Pipeline, objects ObjectStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:       store,
		invitations: invitations,
		resolver:    resolver,
		pipeline:    pipeline,
		objects:     objects,
		logger:      logger,
		now:         time.Now,
	}
}

// Upload handles POST /api/invitations/:slug/album/upload (public,
// multipart). The album opens at the event date; before that the refusal
// carries the availability timestamp so the page can show a countdown.
func (h *Handler) Upload(c *gin.Context) {
	inv, err := h.resolver.ResolveInvitation(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			response.NotFound(c, "invitation not found")
			return
		}
		response.Internal(c, "failed to load invitation")
		return
	}

	album, err := h.store.GetByInvitation(c.Request.Context(), inv.ID)
	if err != nil {
		response.NotFound(c, "album not found")
		return
	}
	if !album.UploadsEnabled {
		response.BadRequest(c, "album uploads are disabled for this event")
		return
	}
	if h.now().Before(inv.EventDate) {
		response.BadRequestData(c, "album opens on the event date", gin.H{
			"availableAt": inv.EventDate,
		})
		return
	}
	if h.objects == nil {
		response.Internal(c, "media storage not configured")
		return
	}

	uploadedBy := c.PostForm("uploadedBy")
	if uploadedBy == "" {
		response.BadRequest(c, "uploadedBy is required")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
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

	// Guest snapshots come straight off a phone camera, so the crop stage
	// is skipped and only the size ceiling and optimize stages apply.
	prepared, err := h.pipeline.Prepare(rc, file.Size, media.Options{})
	if err != nil {
		var verr *media.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(c, verr.Reason)
			return
		}
		h.logger.Error("album image processing failed", zap.Error(err))
		response.Internal(c, "failed to process image")
		return
	}

	key := storage.AlbumKey(album.ID.String(), uuid.New().String()+".jpg")
	url, err := h.objects.PutObject(c.Request.Context(), key, prepared.ContentType,
		bytes.NewReader(prepared.Data), int64(len(prepared.Data)))
	if err != nil {
		h.logger.Error("album upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "upload failed, please retry")
		return
	}

	photo := &models.Photo{
		AlbumID:    album.ID,
		URL:        url,
		UploadedBy: uploadedBy,
		Approved:   !album.Moderation,
	}
	if err := h.store.CreatePhoto(c.Request.Context(), photo); err != nil {
		h.logger.Error("photo insert failed", zap.Error(err), zap.String("url", url))
		response.Internal(c, "failed to save photo")
		return
	}
	response.Created(c, photo)
}

// PublicGallery handles GET /api/invitations/:slug/album (public). Only
// approved photos are visible.
func (h *Handler) PublicGallery(c *gin.Context) {
	inv, err := h.resolver.ResolveInvitation(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			response.NotFound(c, "invitation not found")
			return
		}
		response.Internal(c, "failed to load invitation")
		return
	}
	album, err := h.store.GetByInvitation(c.Request.Context(), inv.ID)
	if err != nil {
		response.NotFound(c, "album not found")
		return
	}
	photos, err := h.store.ListPhotos(c.Request.Context(), album.ID, true)
	if err != nil {
		h.logger.Error("photo list failed", zap.Error(err), zap.String("album", album.ID.String()))
		response.Internal(c, "failed to load album")
		return
	}
	response.OK(c, gin.H{
		"permitirSubida": album.UploadsEnabled,
		"disponibleEn":   availableAt(h.now(), inv.EventDate),
		"fotos":          emptyAsList(photos),
	})
}

// HostGallery handles GET /api/invitations/:slug/album/all (host only).
// Includes unapproved photos awaiting moderation.
func (h *Handler) HostGallery(c *gin.Context) {
	inv, album := h.ownedAlbum(c)
	if album == nil {
		return
	}
	photos, err := h.store.ListPhotos(c.Request.Context(), album.ID, false)
	if err != nil {
		h.logger.Error("photo list failed", zap.Error(err), zap.String("album", album.ID.String()))
		response.Internal(c, "failed to load album")
		return
	}
	response.OK(c, gin.H{
		"album":       album,
		"fechaEvento": inv.EventDate,
		"fotos":       emptyAsList(photos),
	})
}

// UpdateSettings handles PATCH /api/invitations/:slug/album (host only).
func (h *Handler) UpdateSettings(c *gin.Context) {
	inv, album := h.ownedAlbum(c)
	if album == nil {
		return
	}
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.store.UpdateSettings(c.Request.Context(), inv.ID, *req.UploadsEnabled, *req.Moderation)
	if err != nil {
		h.logger.Error("album settings update failed", zap.Error(err), zap.String("invitation", inv.ID.String()))
		response.Internal(c, "failed to update album settings")
		return
	}
	response.OK(c, updated)
}

// Moderate handles PATCH /api/photos/:id/moderate (host only).
func (h *Handler) Moderate(c *gin.Context) {
	photo := h.ownedPhoto(c)
	if photo == nil {
		return
	}
	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	updated, err := h.store.SetPhotoApproval(c.Request.Context(), photo.ID, *req.Approved)
	if err != nil {
		h.logger.Error("photo moderation failed", zap.Error(err), zap.String("photo", photo.ID.String()))
		response.Internal(c, "failed to update photo")
		return
	}
	response.OK(c, updated)
}

// DeletePhoto handles DELETE /api/photos/:id (host only). The stored object
// is removed best effort after the row; a failed object delete leaves an
// orphan in the bucket, never a broken gallery entry.
func (h *Handler) DeletePhoto(c *gin.Context) {
	photo := h.ownedPhoto(c)
	if photo == nil {
		return
	}
	deleted, err := h.store.DeletePhoto(c.Request.Context(), photo.ID)
	if err != nil {
		h.logger.Error("photo delete failed", zap.Error(err), zap.String("photo", photo.ID.String()))
		response.Internal(c, "failed to delete photo")
		return
	}
	if !deleted {
		response.NotFound(c, "photo not found")
		return
	}
	if h.objects != nil {
		if key := h.objects.KeyFromURL(photo.URL); key != "" {
			if err := h.objects.DeleteObject(c.Request.Context(), key); err != nil {
				h.logger.Warn("photo object delete failed", zap.Error(err), zap.String("key", key))
			}
		}
	}
	response.NoContent(c)
}

// ownedAlbum loads the :slug invitation and its album, verifying ownership.
// Writes the error response and returns a nil album when the check fails.
func (h *Handler) ownedAlbum(c *gin.Context) (*models.Invitation, *models.Album) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	inv, err := h.invitations.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.NotFound(c, "invitation not found")
		return nil, nil
	}
	if inv.OwnerID != userID {
		response.Forbidden(c, "not the owner of this invitation")
		return nil, nil
	}
	album, err := h.store.GetByInvitation(c.Request.Context(), inv.ID)
	if err != nil {
		response.NotFound(c, "album not found")
		return nil, nil
	}
	return inv, album
}

// ownedPhoto loads the :id photo and verifies the caller owns the
// invitation it belongs to, walking photo -> album -> invitation.
func (h *Handler) ownedPhoto(c *gin.Context) *models.Photo {
	photoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid photo id")
		return nil
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	photo, err := h.store.GetPhoto(c.Request.Context(), photoID)
	if err != nil {
		response.NotFound(c, "photo not found")
		return nil
	}
	album, err := h.store.GetByID(c.Request.Context(), photo.AlbumID)
	if err != nil {
		response.NotFound(c, "album not found")
		return nil
	}
	inv, err := h.invitations.GetByID(c.Request.Context(), album.InvitationID)
	if err != nil {
		response.NotFound(c, "invitation not found")
		return nil
	}
	if inv.OwnerID != userID {
		response.Forbidden(c, "not the owner of this photo")
		return nil
	}
	return photo
}

// availableAt returns nil once the album is open, else the opening time.
func availableAt(now, eventDate time.Time) interface{} {
	if now.Before(eventDate) {
		return eventDate
	}
	return nil
}

// emptyAsList keeps an empty gallery serializing as [] instead of null.
func emptyAsList(photos []models.Photo) []models.Photo {
	if photos == nil {
		return []models.Photo{}
	}
	return photos
}
