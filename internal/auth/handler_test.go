package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cris-imc/invitaciones-sub001/internal/models"
	"github.com/cris-imc/invitaciones-sub001/pkg/utils"
)

type fakeStore struct {
	byEmail   map[string]*models.User
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byEmail: make(map[string]*models.User)}
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeStore) Create(_ context.Context, email, passwordHash, fullName string) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, ok := s.byEmail[email]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	u := &models.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  passwordHash,
		FullName:  fullName,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.byEmail[email] = u
	return u, nil
}

func authRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(store, NewJWTService("test-secret", 1), nil)
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeStore()
	r := authRouter(store)

	w := postJSON(t, r, "/api/auth/register", RegisterRequest{
		Email:    "ana@example.com",
		Password: "secret123",
		FullName: "Ana Pérez",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201: %s", w.Code, w.Body.String())
	}

	u := store.byEmail["ana@example.com"]
	if u == nil {
		t.Fatal("user not stored")
	}
	if !utils.CheckPassword("secret123", u.Password) {
		t.Error("stored password hash does not match")
	}

	w = postJSON(t, r, "/api/auth/login", LoginRequest{
		Email:    "ana@example.com",
		Password: "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", w.Code, w.Body.String())
	}

	w = postJSON(t, r, "/api/auth/login", LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", w.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	r := authRouter(store)

	req := RegisterRequest{Email: "ana@example.com", Password: "secret123", FullName: "Ana"}
	if w := postJSON(t, r, "/api/auth/register", req); w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d, want 201", w.Code)
	}

	w := postJSON(t, r, "/api/auth/register", req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second register status = %d, want 400", w.Code)
	}
}

func TestRegisterDuplicateEmailRace(t *testing.T) {
	// Two registrations racing past the existence check both reach the
	// insert; the loser gets the unique violation and must see the same
	// "already registered" answer, not a 500.
	store := newFakeStore()
	store.createErr = &pgconn.PgError{Code: "23505"}
	r := authRouter(store)

	w := postJSON(t, r, "/api/auth/register", RegisterRequest{
		Email:    "ana@example.com",
		Password: "secret123",
		FullName: "Ana",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Success || body.Error != "email already registered" {
		t.Errorf("body = %s, want email already registered error", w.Body.String())
	}
}
