package users

import (
	"context"
	"fmt"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/database"
)

const userColumns = `id, email, name, avatar_url, role, agency_id, created_at, updated_at`

// Repository handles user and permission persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a users repository. db may be a pool or a transaction.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Role, &u.AgencyID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID returns the user or nil when none exists.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if database.IsNoRows(err) {
		return nil, nil
	}
	return u, err
}

// FindByEmail returns the user or nil when none exists.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if database.IsNoRows(err) {
		return nil, nil
	}
	return u, err
}

// FirstInAgencyOfSubAccount returns the earliest user of the agency that owns subAccountID, or nil.
func (r *Repository) FirstInAgencyOfSubAccount(ctx context.Context, subAccountID string) (*models.User, error) {
	const q = `SELECT u.id, u.email, u.name, u.avatar_url, u.role, u.agency_id, u.created_at, u.updated_at
		FROM users u
		INNER JOIN subaccounts s ON s.agency_id = u.agency_id
		WHERE s.id = $1
		ORDER BY u.created_at
		LIMIT 1`
	u, err := scanUser(r.db.QueryRow(ctx, q, subAccountID))
	if database.IsNoRows(err) {
		return nil, nil
	}
	return u, err
}

// FindAgencyOwner returns the AGENCY_OWNER of agencyID, or nil.
func (r *Repository) FindAgencyOwner(ctx context.Context, agencyID string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE agency_id = $1 AND role = $2 ORDER BY created_at LIMIT 1`
	u, err := scanUser(r.db.QueryRow(ctx, q, agencyID, models.RoleAgencyOwner))
	if database.IsNoRows(err) {
		return nil, nil
	}
	return u, err
}

// Create inserts a user. A duplicate email or id is reported as a unique violation.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (id, email, name, avatar_url, role, agency_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	return r.db.QueryRow(ctx, q, u.ID, u.Email, u.Name, u.AvatarURL, u.Role, u.AgencyID).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

// UpsertByEmail creates the user or, when the email exists, updates its role. The role of
// a user who already belongs to an agency is kept.
func (r *Repository) UpsertByEmail(ctx context.Context, u *models.User) (*models.User, error) {
	const q = `INSERT INTO users (id, email, name, avatar_url, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			role = CASE WHEN users.agency_id IS NULL THEN EXCLUDED.role ELSE users.role END,
			updated_at = NOW()
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, q, u.ID, u.Email, u.Name, u.AvatarURL, u.Role))
}

// JoinAgency puts user id into agencyID when the user has no agency yet, and reports whether it did.
func (r *Repository) JoinAgency(ctx context.Context, id, agencyID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users SET agency_id = $2, updated_at = NOW() WHERE id = $1 AND agency_id IS NULL`, id, agencyID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Permissions returns the sub-account permissions of the user with id userID, with their sub-accounts.
func (r *Repository) Permissions(ctx context.Context, userID string) ([]models.Permission, error) {
	const q = `SELECT p.id, p.email, p.subaccount_id, p.access,
			s.id, s.agency_id, s.connect_account_id, s.name, s.subaccount_logo, s.company_email,
			s.company_phone, s.goal, s.address, s.city, s.zip_code, s.state, s.country, s.created_at, s.updated_at
		FROM permissions p
		INNER JOIN users u ON u.email = p.email
		INNER JOIN subaccounts s ON s.id = p.subaccount_id
		WHERE u.id = $1
		ORDER BY s.name`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()
	list := []models.Permission{}
	for rows.Next() {
		var p models.Permission
		var s models.SubAccount
		if err := rows.Scan(&p.ID, &p.Email, &p.SubAccountID, &p.Access,
			&s.ID, &s.AgencyID, &s.ConnectAccountID, &s.Name, &s.SubAccountLogo, &s.CompanyEmail,
			&s.CompanyPhone, &s.Goal, &s.Address, &s.City, &s.ZipCode, &s.State, &s.Country, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		p.SubAccount = &s
		list = append(list, p)
	}
	return list, rows.Err()
}
