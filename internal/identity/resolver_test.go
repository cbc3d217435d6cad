package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cris-imc/invitaciones-sub001/internal/models"
)

type fakeInvitations struct {
	bySlug map[string]*models.Invitation
}

func (f *fakeInvitations) GetBySlug(_ context.Context, slug string) (*models.Invitation, error) {
	if inv, ok := f.bySlug[slug]; ok {
		return inv, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeGuests struct {
	byToken map[string]*models.Guest
}

func (f *fakeGuests) GetByToken(_ context.Context, token string) (*models.Guest, error) {
	if g, ok := f.byToken[token]; ok {
		return g, nil
	}
	return nil, pgx.ErrNoRows
}

func TestResolveInvitation(t *testing.T) {
	active := &models.Invitation{ID: uuid.New(), Slug: "boda-1", Status: models.StatusActiva}
	draft := &models.Invitation{ID: uuid.New(), Slug: "boda-2", Status: models.StatusBorrador}
	paused := &models.Invitation{ID: uuid.New(), Slug: "boda-3", Status: models.StatusPausada}

	r := NewResolver(&fakeInvitations{bySlug: map[string]*models.Invitation{
		"boda-1": active, "boda-2": draft, "boda-3": paused,
	}}, &fakeGuests{})

	tests := []struct {
		name    string
		slug    string
		wantErr error
	}{
		{"active resolves", "boda-1", nil},
		{"draft reads as missing", "boda-2", ErrNotFound},
		{"paused reads as missing", "boda-3", ErrNotFound},
		{"unknown slug", "nope", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := r.ResolveInvitation(context.Background(), tt.slug)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && inv.Slug != tt.slug {
				t.Errorf("resolved wrong invitation: %q", inv.Slug)
			}
		})
	}
}

func TestResolvePersonalized(t *testing.T) {
	invA := &models.Invitation{ID: uuid.New(), Slug: "boda-a", Status: models.StatusActiva}
	invB := &models.Invitation{ID: uuid.New(), Slug: "boda-b", Status: models.StatusActiva}
	guestA := &models.Guest{ID: uuid.New(), InvitationID: invA.ID, Token: "tok-a"}

	r := NewResolver(
		&fakeInvitations{bySlug: map[string]*models.Invitation{"boda-a": invA, "boda-b": invB}},
		&fakeGuests{byToken: map[string]*models.Guest{"tok-a": guestA}},
	)

	t.Run("matching token", func(t *testing.T) {
		inv, g, err := r.ResolvePersonalized(context.Background(), "boda-a", "tok-a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if inv.ID != invA.ID || g.ID != guestA.ID {
			t.Errorf("resolved wrong pair")
		}
	})

	t.Run("token replayed on another invitation", func(t *testing.T) {
		_, _, err := r.ResolvePersonalized(context.Background(), "boda-b", "tok-a")
		if !errors.Is(err, ErrInvalidLink) {
			t.Fatalf("err = %v, want ErrInvalidLink", err)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		_, _, err := r.ResolvePersonalized(context.Background(), "boda-a", "tok-x")
		if !errors.Is(err, ErrInvalidLink) {
			t.Fatalf("err = %v, want ErrInvalidLink", err)
		}
	})

	t.Run("unknown slug wins as not found", func(t *testing.T) {
		_, _, err := r.ResolvePersonalized(context.Background(), "nope", "tok-a")
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}
