package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/database"
)

// Repository handles media persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a media repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const mediaColumns = `id, type, name, link, object_key, subaccount_id, created_at, updated_at`

// ListBySubAccount returns the sub-account's media, newest first.
func (r *Repository) ListBySubAccount(ctx context.Context, subAccountID string) ([]models.Media, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+mediaColumns+` FROM media WHERE subaccount_id = $1 ORDER BY created_at DESC`, subAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Media{}
	for rows.Next() {
		var m models.Media
		if err := rows.Scan(&m.ID, &m.Type, &m.Name, &m.Link, &m.ObjectKey, &m.SubAccountID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// GetByID returns the media row or nil.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Media, error) {
	var m models.Media
	err := r.pool.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id).
		Scan(&m.ID, &m.Type, &m.Name, &m.Link, &m.ObjectKey, &m.SubAccountID, &m.CreatedAt, &m.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts m, assigning its id and timestamps.
func (r *Repository) Create(ctx context.Context, m *models.Media) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	const q = `INSERT INTO media (id, type, name, link, object_key, subaccount_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, m.ID, m.Type, m.Name, m.Link, m.ObjectKey, m.SubAccountID).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

// Delete removes the media row and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
