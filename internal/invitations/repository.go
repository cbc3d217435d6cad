package invitations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cris-imc/invitaciones-sub001/internal/models"
)

// Repository handles invitation persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an invitations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invitationColumns = `id, owner_id, slug, tipo, estado, nombre_evento, fecha_evento,
	lugar, direccion, mensaje_bienvenida, portada_url,
	dress_code_habilitado, dress_code, musica_habilitada, musica_url,
	mesa_regalos_habilitada, mensaje_regalos, datos_bancarios,
	galeria_habilitada, galeria, trivia_habilitada, trivia,
	cronograma_habilitado, cronograma, tema, created_at, updated_at`

// Create inserts an invitation together with its owned album in one
// transaction, so a storage failure never leaves a half-written aggregate.
func (r *Repository) Create(ctx context.Context, inv *models.Invitation) error {
	galeria, trivia, cronograma, tema, err := marshalBlobs(inv)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO invitations (owner_id, slug, tipo, estado, nombre_evento, fecha_evento,
			lugar, direccion, mensaje_bienvenida, portada_url,
			dress_code_habilitado, dress_code, musica_habilitada, musica_url,
			mesa_regalos_habilitada, mensaje_regalos, datos_bancarios,
			galeria_habilitada, galeria, trivia_habilitada, trivia,
			cronograma_habilitado, cronograma, tema)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, q,
		inv.OwnerID, inv.Slug, inv.Type, inv.Status, inv.EventName, inv.EventDate,
		inv.Venue, inv.VenueAddress, inv.WelcomeMessage, inv.CoverImageURL,
		inv.DressCodeEnabled, inv.DressCode, inv.MusicEnabled, inv.MusicURL,
		inv.GiftEnabled, inv.GiftMessage, inv.BankInfo,
		inv.GalleryEnabled, galeria, inv.TriviaEnabled, trivia,
		inv.TimelineEnabled, cronograma, tema,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO albums (invitation_id) VALUES ($1)`, inv.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetBySlug returns an invitation by its public slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Invitation, error) {
	return scanInvitation(r.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE slug = $1`, slug))
}

// GetByID returns an invitation by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	return scanInvitation(r.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id))
}

// ListByOwner returns all invitations created by a host, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Invitation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *inv)
	}
	return list, rows.Err()
}

// Update replaces the editable fields of an invitation. Slug is written as
// given: callers keep the existing slug on PATCH and pass a regenerated one
// on PUT.
func (r *Repository) Update(ctx context.Context, inv *models.Invitation) error {
	galeria, trivia, cronograma, tema, err := marshalBlobs(inv)
	if err != nil {
		return err
	}
	const q = `UPDATE invitations SET slug = $1, tipo = $2, estado = $3, nombre_evento = $4, fecha_evento = $5,
			lugar = $6, direccion = $7, mensaje_bienvenida = $8, portada_url = $9,
			dress_code_habilitado = $10, dress_code = $11, musica_habilitada = $12, musica_url = $13,
			mesa_regalos_habilitada = $14, mensaje_regalos = $15, datos_bancarios = $16,
			galeria_habilitada = $17, galeria = $18, trivia_habilitada = $19, trivia = $20,
			cronograma_habilitado = $21, cronograma = $22, tema = $23, updated_at = NOW()
		WHERE id = $24
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q,
		inv.Slug, inv.Type, inv.Status, inv.EventName, inv.EventDate,
		inv.Venue, inv.VenueAddress, inv.WelcomeMessage, inv.CoverImageURL,
		inv.DressCodeEnabled, inv.DressCode, inv.MusicEnabled, inv.MusicURL,
		inv.GiftEnabled, inv.GiftMessage, inv.BankInfo,
		inv.GalleryEnabled, galeria, inv.TriviaEnabled, trivia,
		inv.TimelineEnabled, cronograma, tema, inv.ID,
	).Scan(&inv.UpdatedAt)
}

// Delete removes an invitation. The schema cascades to its album, photos,
// guests and quiz responses atomically. Returns false when no row matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// marshalBlobs serializes the typed JSON-column values. Empty values are
// stored as NULL rather than empty arrays.
func marshalBlobs(inv *models.Invitation) (galeria, trivia, cronograma, tema []byte, err error) {
	if len(inv.GalleryPhotos) > 0 {
		if galeria, err = json.Marshal(inv.GalleryPhotos); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal galeria: %w", err)
		}
	}
	if len(inv.Trivia) > 0 {
		if trivia, err = json.Marshal(inv.Trivia); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal trivia: %w", err)
		}
	}
	if len(inv.Timeline) > 0 {
		if cronograma, err = json.Marshal(inv.Timeline); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal cronograma: %w", err)
		}
	}
	if inv.Theme != nil {
		if tema, err = json.Marshal(inv.Theme); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal tema: %w", err)
		}
	}
	return galeria, trivia, cronograma, tema, nil
}

// scanInvitation reads one invitation row, deserializing the JSON columns
// into their typed structures at the storage boundary.
func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	var galeria, trivia, cronograma, tema []byte
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.Slug, &inv.Type, &inv.Status,
		&inv.EventName, &inv.EventDate,
		&inv.Venue, &inv.VenueAddress, &inv.WelcomeMessage, &inv.CoverImageURL,
		&inv.DressCodeEnabled, &inv.DressCode, &inv.MusicEnabled, &inv.MusicURL,
		&inv.GiftEnabled, &inv.GiftMessage, &inv.BankInfo,
		&inv.GalleryEnabled, &galeria, &inv.TriviaEnabled, &trivia,
		&inv.TimelineEnabled, &cronograma, &tema, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(galeria) > 0 {
		if err := json.Unmarshal(galeria, &inv.GalleryPhotos); err != nil {
			return nil, fmt.Errorf("unmarshal galeria: %w", err)
		}
	}
	if len(trivia) > 0 {
		if err := json.Unmarshal(trivia, &inv.Trivia); err != nil {
			return nil, fmt.Errorf("unmarshal trivia: %w", err)
		}
	}
	if len(cronograma) > 0 {
		if err := json.Unmarshal(cronograma, &inv.Timeline); err != nil {
			return nil, fmt.Errorf("unmarshal cronograma: %w", err)
		}
	}
	if len(tema) > 0 {
		inv.Theme = &models.ThemeConfig{}
		if err := json.Unmarshal(tema, inv.Theme); err != nil {
			return nil, fmt.Errorf("unmarshal tema: %w", err)
		}
	}
	return &inv, nil
}
