package funnels

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/database"
)

// Repository reads funnels and their pages.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a funnels repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const funnelColumns = `id, name, description, published, subdomain_name, favicon, subaccount_id, created_at, updated_at`

func scanFunnel(row pgx.Row) (*models.Funnel, error) {
	var f models.Funnel
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Published, &f.SubDomainName, &f.Favicon, &f.SubAccountID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListBySubAccount returns the sub-account's funnels with their pages.
func (r *Repository) ListBySubAccount(ctx context.Context, subAccountID string) ([]models.FunnelWithPages, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+funnelColumns+` FROM funnels WHERE subaccount_id = $1 ORDER BY created_at`, subAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.FunnelWithPages{}
	index := map[string]int{}
	ids := []string{}
	for rows.Next() {
		f, err := scanFunnel(rows)
		if err != nil {
			return nil, err
		}
		index[f.ID] = len(out)
		ids = append(ids, f.ID)
		out = append(out, models.FunnelWithPages{Funnel: *f, Pages: []models.FunnelPage{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}
	pages, err := r.pages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		i := index[p.FunnelID]
		out[i].Pages = append(out[i].Pages, p)
	}
	return out, nil
}

// GetBySubDomain returns the funnel served on subDomainName with its pages, or nil.
func (r *Repository) GetBySubDomain(ctx context.Context, subDomainName string) (*models.FunnelWithPages, error) {
	f, err := scanFunnel(r.pool.QueryRow(ctx, `SELECT `+funnelColumns+` FROM funnels WHERE subdomain_name = $1`, subDomainName))
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pages, err := r.pages(ctx, []string{f.ID})
	if err != nil {
		return nil, err
	}
	if pages == nil {
		pages = []models.FunnelPage{}
	}
	return &models.FunnelWithPages{Funnel: *f, Pages: pages}, nil
}

func (r *Repository) pages(ctx context.Context, funnelIDs []string) ([]models.FunnelPage, error) {
	const q = `SELECT id, name, path_name, "order", content, funnel_id, preview_url
		FROM funnel_pages WHERE funnel_id = ANY($1) ORDER BY funnel_id, "order"`
	rows, err := r.pool.Query(ctx, q, funnelIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.FunnelPage
	for rows.Next() {
		var p models.FunnelPage
		if err := rows.Scan(&p.ID, &p.Name, &p.PathName, &p.Order, &p.Content, &p.FunnelID, &p.PreviewURL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
