package subaccounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agencyhub/backend/internal/agencies"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/database"
)

const subAccountColumns = `id, agency_id, connect_account_id, name, subaccount_logo, company_email, company_phone,
	goal, address, city, zip_code, state, country, created_at, updated_at`

// DefaultPipelineName is the pipeline every new sub-account starts with.
const DefaultPipelineName = "Lead Cycle"

// Repository handles sub-account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sub-accounts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSubAccount(row pgx.Row) (*models.SubAccount, error) {
	var s models.SubAccount
	err := row.Scan(&s.ID, &s.AgencyID, &s.ConnectAccountID, &s.Name, &s.SubAccountLogo, &s.CompanyEmail,
		&s.CompanyPhone, &s.Goal, &s.Address, &s.City, &s.ZipCode, &s.State, &s.Country, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns the sub-account or nil.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.SubAccount, error) {
	s, err := scanSubAccount(r.pool.QueryRow(ctx, `SELECT `+subAccountColumns+` FROM subaccounts WHERE id = $1`, id))
	if database.IsNoRows(err) {
		return nil, nil
	}
	return s, err
}

// Upsert creates or updates a sub-account. On create, ownerEmail gets access, the
// default pipeline is created and the default sidebar is written, all in one transaction.
func (r *Repository) Upsert(ctx context.Context, s *models.SubAccount, ownerEmail string) (created bool, err error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err = database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `INSERT INTO subaccounts (id, agency_id, connect_account_id, name, subaccount_logo, company_email,
				company_phone, goal, address, city, zip_code, state, country)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, subaccount_logo = EXCLUDED.subaccount_logo,
				company_email = EXCLUDED.company_email, company_phone = EXCLUDED.company_phone,
				goal = EXCLUDED.goal, address = EXCLUDED.address, city = EXCLUDED.city,
				zip_code = EXCLUDED.zip_code, state = EXCLUDED.state, country = EXCLUDED.country,
				updated_at = NOW()
			WHERE subaccounts.agency_id = EXCLUDED.agency_id
			RETURNING connect_account_id, created_at, updated_at, (xmax = 0)`
		err := tx.QueryRow(ctx, q, s.ID, s.AgencyID, s.ConnectAccountID, s.Name, s.SubAccountLogo, s.CompanyEmail,
			s.CompanyPhone, s.Goal, s.Address, s.City, s.ZipCode, s.State, s.Country).
			Scan(&s.ConnectAccountID, &s.CreatedAt, &s.UpdatedAt, &created)
		if database.IsNoRows(err) {
			return apperr.New(apperr.EConflict, "sub-account belongs to another agency")
		}
		if err != nil {
			return fmt.Errorf("upsert subaccount: %w", err)
		}
		if !created {
			return nil
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO permissions (id, email, subaccount_id, access) VALUES ($1, $2, $3, TRUE)`,
			uuid.NewString(), ownerEmail, s.ID); err != nil {
			return fmt.Errorf("insert owner permission: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO pipelines (id, name, subaccount_id) VALUES ($1, $2, $3)`,
			uuid.NewString(), DefaultPipelineName, s.ID); err != nil {
			return fmt.Errorf("insert default pipeline: %w", err)
		}
		return agencies.InsertSidebarOptions(ctx, tx, "subaccount_sidebar_options", "subaccount_id", s.ID, SubAccountSidebar(s.ID))
	})
	return created, err
}

// SubAccountSidebar returns the default navigation for a new sub-account.
func SubAccountSidebar(id string) []models.SidebarOption {
	base := "/subaccount/" + id
	return []models.SidebarOption{
		{Name: "Launchpad", Icon: "clipboardIcon", Link: base + "/launchpad"},
		{Name: "Settings", Icon: "settings", Link: base + "/settings"},
		{Name: "Funnels", Icon: "pipelines", Link: base + "/funnels"},
		{Name: "Media", Icon: "database", Link: base + "/media"},
		{Name: "Automations", Icon: "chip", Link: base + "/automations"},
		{Name: "Pipelines", Icon: "flag", Link: base + "/pipelines"},
		{Name: "Contacts", Icon: "person", Link: base + "/contacts"},
		{Name: "Dashboard", Icon: "category", Link: base},
	}
}
