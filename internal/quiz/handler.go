package quiz

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cris-imc/invitaciones-sub001/internal/models"
	"github.com/cris-imc/invitaciones-sub001/pkg/database"
	"github.com/cris-imc/invitaciones-sub001/pkg/response"
)

// Store is the quiz persistence surface the handler needs.
type Store interface {
	Create(ctx context.Context, qr *models.QuizResponse) error
	FindByRespondent(ctx context.Context, invitationID uuid.UUID, guestToken *string, guestName string) (*models.QuizResponse, error)
	Stats(ctx context.Context, invitationID uuid.UUID) (models.QuizStats, error)
}

// InvitationStore resolves invitations for trivia lookup.
type InvitationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
}

// SubmitRequest is the body for POST /api/quiz.
type SubmitRequest struct {
	InvitationID string `json:"invitationId" binding:"required,uuid"`
	GuestName    string `json:"guestName" binding:"required"`
	GuestToken   string `json:"guestToken"`
	Answers      []int  `json:"answers" binding:"required"`
}

// Handler handles quiz HTTP endpoints.
type Handler struct {
	store       Store
	invitations InvitationStore
	logger      *zap.Logger
}

// NewHandler creates a quiz handler.
func NewHandler(store Store, invitations InvitationStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, invitations: invitations, logger: logger}
}

// Submit handles POST /api/quiz. Each respondent gets at most one stored
// response: a prior row, or a unique violation from a concurrent duplicate,
// both resolve to the already-answered outcome with the current stats.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	invitationID := uuid.MustParse(req.InvitationID)

	inv, err := h.invitations.GetByID(c.Request.Context(), invitationID)
	if err != nil {
		response.NotFound(c, "invitation not found")
		return
	}
	if !inv.TriviaEnabled || len(inv.Trivia) == 0 {
		response.BadRequest(c, "trivia is not enabled for this invitation")
		return
	}

	var token *string
	if req.GuestToken != "" {
		token = &req.GuestToken
	}

	if _, err := h.store.FindByRespondent(c.Request.Context(), invitationID, token, req.GuestName); err == nil {
		h.alreadyAnswered(c, invitationID)
		return
	} else if !database.IsNotFound(err) {
		response.Internal(c, "failed to check previous participation")
		return
	}

	qr := &models.QuizResponse{
		InvitationID:   invitationID,
		GuestName:      req.GuestName,
		GuestToken:     token,
		Answers:        req.Answers,
		Score:          Score(inv.Trivia, req.Answers),
		TotalQuestions: len(inv.Trivia),
	}
	if err := h.store.Create(c.Request.Context(), qr); err != nil {
		if database.IsUniqueViolation(err) {
			// Lost the race against a concurrent submission from the same
			// respondent; the stored score stays untouched.
			h.alreadyAnswered(c, invitationID)
			return
		}
		h.logger.Error("create quiz response failed", zap.Error(err), zap.String("invitation_id", invitationID.String()))
		response.Internal(c, "failed to store quiz response")
		return
	}

	stats, err := h.store.Stats(c.Request.Context(), invitationID)
	if err != nil {
		stats = models.QuizStats{}
	}
	response.OK(c, gin.H{
		"response":          qr,
		"score":             qr.Score,
		"totalQuestions":    qr.TotalQuestions,
		"totalResponses":    stats.TotalResponses,
		"averagePercentage": stats.AveragePercentage,
	})
}

// GetStats handles GET /api/quiz?invitationId=&guestToken=&guestName=.
func (h *Handler) GetStats(c *gin.Context) {
	invitationID, err := uuid.Parse(c.Query("invitationId"))
	if err != nil {
		response.BadRequest(c, "invitationId is required")
		return
	}

	stats, err := h.store.Stats(c.Request.Context(), invitationID)
	if err != nil {
		response.Internal(c, "failed to compute stats")
		return
	}

	hasAnswered := false
	guestToken := c.Query("guestToken")
	guestName := c.Query("guestName")
	if guestToken != "" || guestName != "" {
		var token *string
		if guestToken != "" {
			token = &guestToken
		}
		if _, err := h.store.FindByRespondent(c.Request.Context(), invitationID, token, guestName); err == nil {
			hasAnswered = true
		}
	}

	response.OK(c, gin.H{
		"hasAnswered":       hasAnswered,
		"totalResponses":    stats.TotalResponses,
		"averagePercentage": stats.AveragePercentage,
	})
}

// alreadyAnswered reports prior participation as a distinct, non-alarming
// outcome carrying the aggregate stats.
func (h *Handler) alreadyAnswered(c *gin.Context, invitationID uuid.UUID) {
	stats, err := h.store.Stats(c.Request.Context(), invitationID)
	if err != nil {
		stats = models.QuizStats{}
	}
	response.BadRequestData(c, "already answered", gin.H{
		"alreadyAnswered":   true,
		"hasAnswered":       true,
		"totalResponses":    stats.TotalResponses,
		"averagePercentage": stats.AveragePercentage,
	})
}
