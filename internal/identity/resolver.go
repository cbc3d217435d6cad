// Package identity translates public-facing identifiers (invitation slug,
// guest token) into the authorized records behind them.
package identity

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/cris-imc/invitaciones-sub001/internal/models"
	"github.com/cris-imc/invitaciones-sub001/pkg/database"
)

var (
	// ErrNotFound means the slug does not resolve to a live invitation.
	ErrNotFound = errors.New("invitation not found")
	// ErrInvalidLink means the guest token is unknown, or belongs to a
	// different invitation than the slug. Shown to the guest as an invalid
	// personalized link, never as a missing page.
	ErrInvalidLink = errors.New("invalid invitation link")
)

// InvitationLookup resolves slugs to invitations.
type InvitationLookup interface {
	GetBySlug(ctx context.Context, slug string) (*models.Invitation, error)
}

// GuestLookup resolves bearer tokens to guests.
type GuestLookup interface {
	GetByToken(ctx context.Context, token string) (*models.Guest, error)
}

// Resolver authorizes guest-facing page access.
type Resolver struct {
	invitations InvitationLookup
	guests      GuestLookup
}

// NewResolver creates a resolver over the invitation and guest stores.
func NewResolver(invitations InvitationLookup, guests GuestLookup) *Resolver {
	return &Resolver{invitations: invitations, guests: guests}
}

// ResolveInvitation maps a public slug to its invitation. Only ACTIVA
// invitations are publicly visible; anything else reads as not found.
func (r *Resolver) ResolveInvitation(ctx context.Context, slug string) (*models.Invitation, error) {
	inv, err := r.invitations.GetBySlug(ctx, slug)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if inv.Status != models.StatusActiva {
		return nil, ErrNotFound
	}
	return inv, nil
}

// ResolvePersonalized resolves slug and token independently and
// concurrently, then cross-checks that the token's guest belongs to the
// slug's invitation. A valid token for invitation A replayed against
// invitation B's slug is rejected.
func (r *Resolver) ResolvePersonalized(ctx context.Context, slug, token string) (*models.Invitation, *models.Guest, error) {
	var (
		inv   *models.Invitation
		guest *models.Guest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		i, err := r.ResolveInvitation(gctx, slug)
		if err != nil {
			return err
		}
		inv = i
		return nil
	})
	g.Go(func() error {
		gu, err := r.guests.GetByToken(gctx, token)
		if err != nil {
			if database.IsNotFound(err) {
				return ErrInvalidLink
			}
			return err
		}
		guest = gu
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if guest.InvitationID != inv.ID {
		return nil, nil, ErrInvalidLink
	}
	return inv, guest, nil
}
