package albums

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cris-imc/invitaciones-sub001/internal/models"
)

// Repository handles album and photo persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an albums repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByInvitation returns the album owned by an invitation.
func (r *Repository) GetByInvitation(ctx context.Context, invitationID uuid.UUID) (*models.Album, error) {
	const q = `SELECT id, invitation_id, permitir_subida, moderacion, created_at
		FROM albums WHERE invitation_id = $1`
	return scanAlbum(r.pool.QueryRow(ctx, q, invitationID))
}

// GetByID returns an album by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Album, error) {
	const q = `SELECT id, invitation_id, permitir_subida, moderacion, created_at
		FROM albums WHERE id = $1`
	return scanAlbum(r.pool.QueryRow(ctx, q, id))
}

// UpdateSettings replaces the album's upload and moderation flags.
func (r *Repository) UpdateSettings(ctx context.Context, invitationID uuid.UUID, uploadsEnabled, moderation bool) (*models.Album, error) {
	const q = `UPDATE albums SET permitir_subida = $1, moderacion = $2
		WHERE invitation_id = $3
		RETURNING id, invitation_id, permitir_subida, moderacion, created_at`
	return scanAlbum(r.pool.QueryRow(ctx, q, uploadsEnabled, moderation, invitationID))
}

// CreatePhoto inserts a photo row. Called only after the object is durably
// stored, so an aborted upload never leaves a dangling row.
func (r *Repository) CreatePhoto(ctx context.Context, p *models.Photo) error {
	const q = `INSERT INTO photos (album_id, url, uploaded_by, aprobada)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, p.AlbumID, p.URL, p.UploadedBy, p.Approved).
		Scan(&p.ID, &p.CreatedAt)
}

// GetPhoto returns a photo by ID.
func (r *Repository) GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	const q = `SELECT id, album_id, url, uploaded_by, aprobada, created_at FROM photos WHERE id = $1`
	return scanPhoto(r.pool.QueryRow(ctx, q, id))
}

// ListPhotos returns an album's photos, newest first. With onlyApproved the
// moderation filter applies; this is the public gallery read.
func (r *Repository) ListPhotos(ctx context.Context, albumID uuid.UUID, onlyApproved bool) ([]models.Photo, error) {
	q := `SELECT id, album_id, url, uploaded_by, aprobada, created_at FROM photos WHERE album_id = $1`
	if onlyApproved {
		q += ` AND aprobada = TRUE`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// SetPhotoApproval flips the moderation flag of a photo.
func (r *Repository) SetPhotoApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Photo, error) {
	const q = `UPDATE photos SET aprobada = $1 WHERE id = $2
		RETURNING id, album_id, url, uploaded_by, aprobada, created_at`
	return scanPhoto(r.pool.QueryRow(ctx, q, approved, id))
}

// DeletePhoto removes a photo row. Returns false when no row matched.
func (r *Repository) DeletePhoto(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanAlbum(row pgx.Row) (*models.Album, error) {
	var a models.Album
	err := row.Scan(&a.ID, &a.InvitationID, &a.UploadsEnabled, &a.Moderation, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanPhoto(row pgx.Row) (*models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.AlbumID, &p.URL, &p.UploadedBy, &p.Approved, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
