package guests

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cris-imc/invitaciones-sub001/internal/middleware"
	"github.com/cris-imc/invitaciones-sub001/internal/models"
	"github.com/cris-imc/invitaciones-sub001/pkg/response"
)

// Store is the guest persistence surface the handler needs.
type Store interface {
	Create(ctx context.Context, g *models.Guest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Guest, error)
	ListByInvitation(ctx context.Context, invitationID uuid.UUID) ([]models.Guest, error)
	UpdateRSVP(ctx context.Context, id uuid.UUID, status models.GuestStatus, attendingCount int, message string) (*models.Guest, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// InvitationStore resolves invitations for ownership checks.
type InvitationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	GetBySlug(ctx context.Context, slug string) (*models.Invitation, error)
}

// CreateRequest is the body for POST /api/invitations/:slug/guests.
type CreateRequest struct {
	Name          string `json:"nombre" binding:"required"`
	Type          string `json:"tipo" binding:"required,oneof=INDIVIDUAL FAMILY"`
	ExpectedCount int    `json:"cupoMaximo"`
}

// RSVPRequest is the body for PUT /api/guests/:id.
type RSVPRequest struct {
	Status         string `json:"estado" binding:"required,oneof=CONFIRMED DECLINED"`
	AttendingCount int    `json:"asistentes"`
	Message        string `json:"mensaje"`
}

// Handler handles guest HTTP endpoints.
type Handler struct {
	store       Store
	invitations InvitationStore
	logger      *zap.Logger
}

// NewHandler creates a guests handler.
func NewHandler(store Store, invitations InvitationStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, invitations: invitations, logger: logger}
}

// Create handles POST /api/invitations/:slug/guests (host only).
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	inv, err := h.invitations.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.NotFound(c, "invitation not found")
		return
	}
	if inv.OwnerID != userID {
		response.Forbidden(c, "not the owner of this invitation")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	expected := req.ExpectedCount
	if req.Type == string(models.GuestIndividual) || expected < 1 {
		expected = 1
	}

	token, err := GenerateToken()
	if err != nil {
		response.Internal(c, "failed to generate guest token")
		return
	}

	g := &models.Guest{
		InvitationID:  inv.ID,
		Name:          req.Name,
		Type:          models.GuestType(req.Type),
		ExpectedCount: expected,
		Token:         token,
	}
	if err := h.store.Create(c.Request.Context(), g); err != nil {
		h.logger.Error("create guest failed", zap.Error(err), zap.String("invitation_id", inv.ID.String()))
		response.Internal(c, "failed to create guest")
		return
	}
	response.Created(c, g)
}

// ListByInvitation handles GET /api/invitations/:slug/guests (host only).
func (h *Handler) ListByInvitation(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	inv, err := h.invitations.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.NotFound(c, "invitation not found")
		return
	}
	if inv.OwnerID != userID {
		response.Forbidden(c, "not the owner of this invitation")
		return
	}

	list, err := h.store.ListByInvitation(c.Request.Context(), inv.ID)
	if err != nil {
		response.Internal(c, "failed to list guests")
		return
	}
	response.OK(c, list)
}

// RSVP handles PUT /api/guests/:id (public). The write is an idempotent
// update of the guest row: a valid identity always succeeds and re-submission
// overwrites the prior answer.
func (h *Handler) RSVP(c *gin.Context) {
	guestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid guest id")
		return
	}

	var req RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	g, err := h.store.GetByID(c.Request.Context(), guestID)
	if err != nil {
		response.NotFound(c, "guest not found")
		return
	}

	status := models.GuestStatus(req.Status)
	count := req.AttendingCount
	if status == models.GuestConfirmed {
		if count < 1 || count > g.ExpectedCount {
			response.BadRequest(c, "asistentes must be between 1 and the guest's cupo")
			return
		}
	} else {
		// Declined responses never carry an attending count.
		count = 0
	}

	updated, err := h.store.UpdateRSVP(c.Request.Context(), guestID, status, count, req.Message)
	if err != nil {
		h.logger.Error("rsvp update failed", zap.Error(err), zap.String("guest_id", guestID.String()))
		response.Internal(c, "failed to record rsvp")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /api/guests/:id (host only).
func (h *Handler) Delete(c *gin.Context) {
	guestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid guest id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	g, err := h.store.GetByID(c.Request.Context(), guestID)
	if err != nil {
		response.NotFound(c, "guest not found")
		return
	}
	inv, err := h.invitations.GetByID(c.Request.Context(), g.InvitationID)
	if err != nil {
		response.NotFound(c, "invitation not found")
		return
	}
	if inv.OwnerID != userID {
		response.Forbidden(c, "not the owner of this invitation")
		return
	}

	ok, err := h.store.Delete(c.Request.Context(), guestID)
	if err != nil {
		response.Internal(c, "failed to delete guest")
		return
	}
	if !ok {
		response.NotFound(c, "guest not found")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
