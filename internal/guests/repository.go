package guests

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cris-imc/invitaciones-sub001/internal/models"
)

// Repository handles guest persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a guests repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const guestColumns = `id, invitation_id, nombre, tipo, cupo_maximo, token, estado, asistentes, mensaje, created_at, updated_at`

// Create inserts a guest with a freshly generated token.
func (r *Repository) Create(ctx context.Context, g *models.Guest) error {
	const q = `INSERT INTO guests (invitation_id, nombre, tipo, cupo_maximo, token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, estado, asistentes, mensaje, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, g.InvitationID, g.Name, g.Type, g.ExpectedCount, g.Token).
		Scan(&g.ID, &g.Status, &g.AttendingCount, &g.Message, &g.CreatedAt, &g.UpdatedAt)
}

// GetByID returns a guest by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	return scanGuest(r.pool.QueryRow(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = $1`, id))
}

// GetByToken returns a guest by its bearer token.
func (r *Repository) GetByToken(ctx context.Context, token string) (*models.Guest, error) {
	return scanGuest(r.pool.QueryRow(ctx, `SELECT `+guestColumns+` FROM guests WHERE token = $1`, token))
}

// ListByInvitation returns all guests of an invitation in creation order.
func (r *Repository) ListByInvitation(ctx context.Context, invitationID uuid.UUID) ([]models.Guest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE invitation_id = $1 ORDER BY created_at`, invitationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *g)
	}
	return list, rows.Err()
}

// UpdateRSVP writes the guest's response directly onto the guest row. The
// write is idempotent: re-submitting overwrites the prior answer, count and
// message without creating additional rows.
func (r *Repository) UpdateRSVP(ctx context.Context, id uuid.UUID, status models.GuestStatus, attendingCount int, message string) (*models.Guest, error) {
	const q = `UPDATE guests SET estado = $1, asistentes = $2, mensaje = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + guestColumns
	return scanGuest(r.pool.QueryRow(ctx, q, status, attendingCount, message, id))
}

// Delete removes a guest. Returns false when no row matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM guests WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SummaryByInvitation aggregates RSVP state over all guests of an invitation.
func (r *Repository) SummaryByInvitation(ctx context.Context, invitationID uuid.UUID) (models.RSVPSummary, error) {
	const q = `SELECT
			COUNT(*) FILTER (WHERE estado = 'PENDING'),
			COUNT(*) FILTER (WHERE estado = 'CONFIRMED'),
			COUNT(*) FILTER (WHERE estado = 'DECLINED'),
			COALESCE(SUM(asistentes), 0)
		FROM guests WHERE invitation_id = $1`
	var s models.RSVPSummary
	err := r.pool.QueryRow(ctx, q, invitationID).
		Scan(&s.Pending, &s.Confirmed, &s.Declined, &s.AttendingTotal)
	return s, err
}

func scanGuest(row pgx.Row) (*models.Guest, error) {
	var g models.Guest
	err := row.Scan(&g.ID, &g.InvitationID, &g.Name, &g.Type, &g.ExpectedCount,
		&g.Token, &g.Status, &g.AttendingCount, &g.Message, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
