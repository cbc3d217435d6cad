package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cris-imc/invitaciones-sub001/internal/models"
)

// Repository handles quiz response persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a quiz repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a quiz response. A unique violation from the partial
// indexes means the respondent already answered concurrently; callers treat
// it as the already-answered outcome, not a storage failure.
func (r *Repository) Create(ctx context.Context, qr *models.QuizResponse) error {
	answers, err := json.Marshal(qr.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	const q = `INSERT INTO quiz_responses (invitation_id, guest_name, guest_token, answers, score, total_questions)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, qr.InvitationID, qr.GuestName, qr.GuestToken, answers, qr.Score, qr.TotalQuestions).
		Scan(&qr.ID, &qr.CreatedAt)
}

// FindByRespondent returns the existing response for (invitation, token),
// falling back to (invitation, name) when no token was presented.
func (r *Repository) FindByRespondent(ctx context.Context, invitationID uuid.UUID, guestToken *string, guestName string) (*models.QuizResponse, error) {
	const byToken = `SELECT id, invitation_id, guest_name, guest_token, answers, score, total_questions, created_at
		FROM quiz_responses WHERE invitation_id = $1 AND guest_token = $2`
	const byName = `SELECT id, invitation_id, guest_name, guest_token, answers, score, total_questions, created_at
		FROM quiz_responses WHERE invitation_id = $1 AND guest_name = $2 AND guest_token IS NULL`

	var row pgx.Row
	if guestToken != nil && *guestToken != "" {
		row = r.pool.QueryRow(ctx, byToken, invitationID, *guestToken)
	} else {
		row = r.pool.QueryRow(ctx, byName, invitationID, guestName)
	}

	var qr models.QuizResponse
	var answers []byte
	err := row.Scan(&qr.ID, &qr.InvitationID, &qr.GuestName, &qr.GuestToken,
		&answers, &qr.Score, &qr.TotalQuestions, &qr.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &qr.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	return &qr, nil
}

// Stats aggregates all responses of an invitation: count and rounded mean
// percentage. Recomputed on every request, no caching.
func (r *Repository) Stats(ctx context.Context, invitationID uuid.UUID) (models.QuizStats, error) {
	const q = `SELECT COUNT(*),
			COALESCE(AVG(score::float8 / NULLIF(total_questions, 0) * 100), 0)
		FROM quiz_responses WHERE invitation_id = $1`
	var s models.QuizStats
	var avg float64
	if err := r.pool.QueryRow(ctx, q, invitationID).Scan(&s.TotalResponses, &avg); err != nil {
		return s, err
	}
	s.AveragePercentage = int(math.Round(avg))
	return s, nil
}
