// Package invitations implements the invitation aggregate: the host CRUD
// surface and the public microsite read resolved by slug and guest token.
package invitations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cris-imc/invitaciones-sub001/internal/identity"
	"github.com/cris-imc/invitaciones-sub001/internal/middleware"
	"github.com/cris-imc/invitaciones-sub001/internal/models"
	"github.com/cris-imc/invitaciones-sub001/pkg/database"
	"github.com/cris-imc/invitaciones-sub001/pkg/response"
)

// Store is the invitation persistence surface the handler needs.
type Store interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	GetBySlug(ctx context.Context, slug string) (*models.Invitation, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Invitation, error)
	Update(ctx context.Context, inv *models.Invitation) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Resolver authorizes the public microsite reads.
type Resolver interface {
	ResolveInvitation(ctx context.Context, slug string) (*models.Invitation, error)
	ResolvePersonalized(ctx context.Context, slug, token string) (*models.Invitation, *models.Guest, error)
}

// GuestSummarizer aggregates RSVP state for an invitation.
type GuestSummarizer interface {
	SummaryByInvitation(ctx context.Context, invitationID uuid.UUID) (models.RSVPSummary, error)
}

// AlbumStore reads the approved album photos shown on the public page.
type AlbumStore interface {
	GetByInvitation(ctx context.Context, invitationID uuid.UUID) (*models.Album, error)
	ListPhotos(ctx context.Context, albumID uuid.UUID, onlyApproved bool) ([]models.Photo, error)
}

// Payload is the body for invitation create and update requests.
type Payload struct {
	Type      string    `json:"tipo" binding:"required,oneof=boda quince cumple bautizo babyshower"`
	Status    string    `json:"estado" binding:"omitempty,oneof=ACTIVA BORRADOR PAUSADA"`
	EventName string    `json:"nombreEvento" binding:"required"`
	EventDate time.Time `json:"fechaEvento" binding:"required"`

	Venue          string `json:"lugar"`
	VenueAddress   string `json:"direccion"`
	WelcomeMessage string `json:"mensajeBienvenida"`
	CoverImageURL  string `json:"portadaUrl"`

	DressCodeEnabled bool   `json:"dressCodeHabilitado"`
	DressCode        string `json:"dressCode"`

	MusicEnabled bool   `json:"musicaHabilitada"`
	MusicURL     string `json:"musicaUrl"`

	GiftEnabled bool   `json:"mesaRegalosHabilitada"`
	GiftMessage string `json:"mensajeRegalos"`
	BankInfo    string `json:"datosBancarios"`

	GalleryEnabled bool     `json:"galeriaHabilitada"`
	GalleryPhotos  []string `json:"galeria"`

	TriviaEnabled bool                    `json:"triviaHabilitada"`
	Trivia        []models.TriviaQuestion `json:"trivia"`

	TimelineEnabled bool                   `json:"cronogramaHabilitado"`
	Timeline        []models.TimelineEntry `json:"cronograma"`

	Theme *models.ThemeConfig `json:"tema"`
}

// apply writes the payload onto an invitation, leaving identity fields
// (ID, OwnerID, Slug) untouched.
func (p *Payload) apply(inv *models.Invitation) {
	inv.Type = models.InvitationType(p.Type)
	if p.Status != "" {
		inv.Status = models.InvitationStatus(p.Status)
	}
	inv.EventName = p.EventName
	inv.EventDate = p.EventDate
	inv.Venue = p.Venue
	inv.VenueAddress = p.VenueAddress
	inv.WelcomeMessage = p.WelcomeMessage
	inv.CoverImageURL = p.CoverImageURL
	inv.DressCodeEnabled = p.DressCodeEnabled
	inv.DressCode = p.DressCode
	inv.MusicEnabled = p.MusicEnabled
	inv.MusicURL = p.MusicURL
	inv.GiftEnabled = p.GiftEnabled
	inv.GiftMessage = p.GiftMessage
	inv.BankInfo = p.BankInfo
	inv.GalleryEnabled = p.GalleryEnabled
	inv.GalleryPhotos = p.GalleryPhotos
	inv.TriviaEnabled = p.TriviaEnabled
	inv.Trivia = p.Trivia
	inv.TimelineEnabled = p.TimelineEnabled
	inv.Timeline = p.Timeline
	inv.Theme = p.Theme
}

// validate checks the cross-field rules binding tags cannot express.
func (p *Payload) validate() error {
	for i, q := range p.Trivia {
		if len(q.Options) < 2 {
			return fmt.Errorf("trivia question %d needs at least 2 options", i+1)
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return fmt.Errorf("trivia question %d has an out-of-range answer", i+1)
		}
	}
	return nil
}

// Handler handles invitation HTTP endpoints.
type Handler struct {
	store    Store
	resolver Resolver
	guests   GuestSummarizer
	albums   AlbumStore
	logger   *zap.Logger
}

// NewHandler creates an invitations handler.
func NewHandler(store Store, resolver Resolver, guests GuestSummarizer, albums AlbumStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, resolver: resolver, guests: guests, albums: albums, logger: logger}
}

// GetPublic handles GET /api/invitations/:slug (public). An optional
// ?token= query personalizes the page for a known guest; a token that does
// not belong to this invitation is rejected, not ignored.
func (h *Handler) GetPublic(c *gin.Context) {
	slug := c.Param("slug")
	token := c.Query("token")

	var (
		inv   *models.Invitation
		guest *models.Guest
		err   error
	)
	if token != "" {
		inv, guest, err = h.resolver.ResolvePersonalized(c.Request.Context(), slug, token)
	} else {
		inv, err = h.resolver.ResolveInvitation(c.Request.Context(), slug)
	}
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidLink):
			response.Forbidden(c, "invalid invitation link")
		case errors.Is(err, identity.ErrNotFound):
			response.NotFound(c, "invitation not found")
		default:
			h.logger.Error("public invitation load failed", zap.Error(err), zap.String("slug", slug))
			response.Internal(c, "failed to load invitation")
		}
		return
	}

	data := gin.H{"invitacion": inv}
	if guest != nil {
		data["invitado"] = guest
	}

	if summary, err := h.guests.SummaryByInvitation(c.Request.Context(), inv.ID); err == nil {
		data["rsvp"] = summary
	} else {
		h.logger.Warn("rsvp summary failed", zap.Error(err), zap.String("slug", slug))
	}

	// The album section is additive; a read failure degrades the page
	// instead of breaking it.
	if album, err := h.albums.GetByInvitation(c.Request.Context(), inv.ID); err == nil {
		photos, err := h.albums.ListPhotos(c.Request.Context(), album.ID, true)
		if err != nil {
			h.logger.Warn("album photos load failed", zap.Error(err), zap.String("slug", slug))
		}
		if photos == nil {
			photos = []models.Photo{}
		}
		data["album"] = gin.H{
			"permitirSubida": album.UploadsEnabled,
			"fotos":          photos,
		}
	}

	response.OK(c, data)
}

// Create handles POST /api/invitations (host only).
func (h *Handler) Create(c *gin.Context) {
	var req Payload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	inv := &models.Invitation{
		OwnerID: c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Slug:    GenerateSlug(req.EventName, time.Now()),
		Status:  models.StatusBorrador,
	}
	req.apply(inv)

	if err := h.store.Create(c.Request.Context(), inv); err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "an invitation with this address already exists, please retry")
			return
		}
		h.logger.Error("invitation create failed", zap.Error(err))
		response.Internal(c, "failed to create invitation")
		return
	}
	response.Created(c, inv)
}

// List handles GET /api/invitations (host only).
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("invitation list failed", zap.Error(err))
		response.Internal(c, "failed to list invitations")
		return
	}
	if list == nil {
		list = []models.Invitation{}
	}
	response.OK(c, list)
}

// Get handles GET /api/invitations/:slug/manage (host only). Unlike the
// public read it returns drafts and paused invitations, plus the RSVP
// summary.
func (h *Handler) Get(c *gin.Context) {
	inv := h.owned(c)
	if inv == nil {
		return
	}
	data := gin.H{"invitacion": inv}
	if summary, err := h.guests.SummaryByInvitation(c.Request.Context(), inv.ID); err == nil {
		data["rsvp"] = summary
	} else {
		h.logger.Warn("rsvp summary failed", zap.Error(err), zap.String("slug", inv.Slug))
	}
	response.OK(c, data)
}

// Update handles PATCH /api/invitations/:slug (host only). The slug is
// preserved so links already sent to guests keep working.
func (h *Handler) Update(c *gin.Context) {
	h.update(c, false)
}

// Replace handles PUT /api/invitations/:slug (host only). The slug is
// regenerated from the event name; old links stop resolving.
func (h *Handler) Replace(c *gin.Context) {
	h.update(c, true)
}

func (h *Handler) update(c *gin.Context, regenerateSlug bool) {
	inv := h.owned(c)
	if inv == nil {
		return
	}
	var req Payload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	req.apply(inv)
	if regenerateSlug {
		inv.Slug = GenerateSlug(inv.EventName, time.Now())
	}

	if err := h.store.Update(c.Request.Context(), inv); err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "an invitation with this address already exists, please retry")
			return
		}
		h.logger.Error("invitation update failed", zap.Error(err), zap.String("id", inv.ID.String()))
		response.Internal(c, "failed to update invitation")
		return
	}
	response.OK(c, inv)
}

// Delete handles DELETE /api/invitations/:slug (host only). Guests, quiz
// responses, the album and its photo rows go with it.
func (h *Handler) Delete(c *gin.Context) {
	inv := h.owned(c)
	if inv == nil {
		return
	}
	deleted, err := h.store.Delete(c.Request.Context(), inv.ID)
	if err != nil {
		h.logger.Error("invitation delete failed", zap.Error(err), zap.String("id", inv.ID.String()))
		response.Internal(c, "failed to delete invitation")
		return
	}
	if !deleted {
		response.NotFound(c, "invitation not found")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// owned loads the :slug invitation and verifies ownership, writing the
// error response and returning nil when the check fails.
func (h *Handler) owned(c *gin.Context) *models.Invitation {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	inv, err := h.store.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.NotFound(c, "invitation not found")
		return nil
	}
	if inv.OwnerID != userID {
		response.Forbidden(c, "not the owner of this invitation")
		return nil
	}
	return inv
}
