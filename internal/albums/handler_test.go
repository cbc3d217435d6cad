package albums

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cris-imc/invitaciones-sub001/internal/identity"
	"github.com/cris-imc/invitaciones-sub001/internal/media"
	"github.com/cris-imc/invitaciones-sub001/internal/models"
)

type fakeStore struct {
	album  *models.Album
	photos []models.Photo

	listedApprovedOnly bool
}

func (f *fakeStore) GetByInvitation(_ context.Context, invitationID uuid.UUID) (*models.Album, error) {
	if f.album != nil && f.album.InvitationID == invitationID {
		return f.album, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Album, error) {
	if f.album != nil && f.album.ID == id {
		return f.album, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) UpdateSettings(_ context.Context, invitationID uuid.UUID, uploadsEnabled, moderation bool) (*models.Album, error) {
	f.album.UploadsEnabled = uploadsEnabled
	f.album.Moderation = moderation
	return f.album, nil
}

func (f *fakeStore) CreatePhoto(_ context.Context, p *models.Photo) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	f.photos = append(f.photos, *p)
	return nil
}

func (f *fakeStore) GetPhoto(_ context.Context, id uuid.UUID) (*models.Photo, error) {
	for i := range f.photos {
		if f.photos[i].ID == id {
			return &f.photos[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) ListPhotos(_ context.Context, albumID uuid.UUID, onlyApproved bool) ([]models.Photo, error) {
	f.listedApprovedOnly = onlyApproved
	var list []models.Photo
	for _, p := range f.photos {
		if p.AlbumID != albumID {
			continue
		}
		if onlyApproved && !p.Approved {
			continue
		}
		list = append(list, p)
	}
	return list, nil
}

func (f *fakeStore) SetPhotoApproval(_ context.Context, id uuid.UUID, approved bool) (*models.Photo, error) {
	for i := range f.photos {
		if f.photos[i].ID == id {
			f.photos[i].Approved = approved
			return &f.photos[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) DeletePhoto(_ context.Context, id uuid.UUID) (bool, error) {
	for i := range f.photos {
		if f.photos[i].ID == id {
			f.photos = append(f.photos[:i], f.photos[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeInvitations struct {
	inv *models.Invitation
}

func (f *fakeInvitations) GetByID(_ context.Context, id uuid.UUID) (*models.Invitation, error) {
	if f.inv != nil && f.inv.ID == id {
		return f.inv, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeInvitations) GetBySlug(_ context.Context, slug string) (*models.Invitation, error) {
	if f.inv != nil && f.inv.Slug == slug {
		return f.inv, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeObjects struct {
	puts    []string
	deletes []string
}

func (f *fakeObjects) PutObject(_ context.Context, key, _ string, _ io.Reader, _ int64) (string, error) {
	f.puts = append(f.puts, key)
	return "https://cdn.test/" + key, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeObjects) KeyFromURL(url string) string {
	const prefix = "https://cdn.test/"
	if len(url) > len(prefix) && url[:len(prefix)] == prefix {
		return url[len(prefix):]
	}
	return ""
}

type fixture struct {
	inv     *models.Invitation
	album   *models.Album
	store   *fakeStore
	objects *fakeObjects
	router  *gin.Engine
	handler *Handler
}

func newFixture(t *testing.T, eventDate time.Time, uploadsEnabled, moderation bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	inv := &models.Invitation{
		ID:        uuid.New(),
		Slug:      "boda-test",
		Status:    models.StatusActiva,
		EventDate: eventDate,
	}
	album := &models.Album{
		ID:             uuid.New(),
		InvitationID:   inv.ID,
		UploadsEnabled: uploadsEnabled,
		Moderation:     moderation,
	}
	store := &fakeStore{album: album}
	objects := &fakeObjects{}
	invitations := &fakeInvitations{inv: inv}
	resolver := identity.NewResolver(invitations, noGuests{})
	pipeline := media.NewPipeline(media.Config{MaxDimension: 400, JPEGQuality: 85})

	h := NewHandler(store, invitations, resolver, pipeline, objects, nil)

	r := gin.New()
	r.POST("/api/invitations/:slug/album/upload", h.Upload)
	r.GET("/api/invitations/:slug/album", h.PublicGallery)
	return &fixture{inv: inv, album: album, store: store, objects: objects, router: r, handler: h}
}

type noGuests struct{}

func (noGuests) GetByToken(context.Context, string) (*models.Guest, error) {
	return nil, pgx.ErrNoRows
}

func uploadPhoto(t *testing.T, r *gin.Engine, slug, uploadedBy string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if uploadedBy != "" {
		mw.WriteField("uploadedBy", uploadedBy)
	}
	fw, err := mw.CreateFormFile("file", "foto.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if err := png.Encode(fw, imaging.New(50, 50, color.NRGBA{R: 120, A: 255})); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/invitations/"+slug+"/album/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   string                 `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return e
}

func TestUploadBeforeEventDateRefused(t *testing.T) {
	f := newFixture(t, time.Now().Add(48*time.Hour), true, false)

	w := uploadPhoto(t, f.router, "boda-test", "Ana")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	e := decode(t, w)
	if e.Data["availableAt"] == nil {
		t.Errorf("refusal missing availableAt: %v", e.Data)
	}
	if len(f.store.photos) != 0 || len(f.objects.puts) != 0 {
		t.Errorf("gated upload stored data")
	}
}

func TestUploadAfterEventDate(t *testing.T) {
	f := newFixture(t, time.Now().Add(-time.Hour), true, false)

	w := uploadPhoto(t, f.router, "boda-test", "Ana")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(f.objects.puts) != 1 {
		t.Fatalf("expected one stored object, got %d", len(f.objects.puts))
	}
	if len(f.store.photos) != 1 {
		t.Fatalf("expected one photo row, got %d", len(f.store.photos))
	}
	p := f.store.photos[0]
	if !p.Approved {
		t.Errorf("without moderation the photo should be approved immediately")
	}
	if p.UploadedBy != "Ana" {
		t.Errorf("uploadedBy = %q", p.UploadedBy)
	}
}

func TestUploadWithModerationPending(t *testing.T) {
	f := newFixture(t, time.Now().Add(-time.Hour), true, true)

	w := uploadPhoto(t, f.router, "boda-test", "Luis")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	if f.store.photos[0].Approved {
		t.Errorf("moderated album stored an approved photo")
	}
}

func TestUploadRequiresUploadedBy(t *testing.T) {
	f := newFixture(t, time.Now().Add(-time.Hour), true, false)

	w := uploadPhoto(t, f.router, "boda-test", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUploadDisabled(t *testing.T) {
	f := newFixture(t, time.Now().Add(-time.Hour), false, false)

	w := uploadPhoto(t, f.router, "boda-test", "Ana")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUploadUnknownSlug(t *testing.T) {
	f := newFixture(t, time.Now().Add(-time.Hour), true, false)

	w := uploadPhoto(t, f.router, "otra-boda", "Ana")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestPublicGalleryFiltersApproved(t *testing.T) {
	f := newFixture(t, time.Now().Add(-time.Hour), true, true)
	f.store.photos = []models.Photo{
		{ID: uuid.New(), AlbumID: f.album.ID, URL: "https://cdn.test/a", Approved: true},
		{ID: uuid.New(), AlbumID: f.album.ID, URL: "https://cdn.test/b", Approved: false},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/invitations/boda-test/album", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !f.store.listedApprovedOnly {
		t.Errorf("public gallery read without the approved filter")
	}
	e := decode(t, w)
	fotos := e.Data["fotos"].([]interface{})
	if len(fotos) != 1 {
		t.Errorf("public gallery returned %d photos, want 1", len(fotos))
	}
}
