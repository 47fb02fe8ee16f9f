package agencies

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/internal/users"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/database"
)

const agencyColumns = `id, connect_account_id, customer_id, name, agency_logo, company_email, company_phone,
	white_label, address, city, zip_code, state, country, goal, created_at, updated_at`

// Repository handles agency persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an agencies repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanAgency(row pgx.Row) (*models.Agency, error) {
	var a models.Agency
	err := row.Scan(&a.ID, &a.ConnectAccountID, &a.CustomerID, &a.Name, &a.AgencyLogo, &a.CompanyEmail,
		&a.CompanyPhone, &a.WhiteLabel, &a.Address, &a.City, &a.ZipCode, &a.State, &a.Country, &a.Goal,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID returns the agency or nil.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Agency, error) {
	a, err := scanAgency(r.pool.QueryRow(ctx, `SELECT `+agencyColumns+` FROM agencies WHERE id = $1`, id))
	if database.IsNoRows(err) {
		return nil, nil
	}
	return a, err
}

// Details returns the agency with its sidebar options and sub-accounts, or nil.
func (r *Repository) Details(ctx context.Context, id string) (*models.AgencyDetails, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	d := &models.AgencyDetails{Agency: *a}
	if d.SidebarOptions, err = sidebarOptions(ctx, r.pool,
		`SELECT id, name, icon, link FROM agency_sidebar_options WHERE agency_id = $1 ORDER BY position, name`, id); err != nil {
		return nil, fmt.Errorf("agency sidebar: %w", err)
	}

	const subQ = `SELECT id, agency_id, connect_account_id, name, subaccount_logo, company_email, company_phone,
			goal, address, city, zip_code, state, country, created_at, updated_at
		FROM subaccounts WHERE agency_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, subQ, id)
	if err != nil {
		return nil, fmt.Errorf("query subaccounts: %w", err)
	}
	defer rows.Close()
	d.SubAccounts = []models.SubAccountDetails{}
	index := map[string]int{}
	for rows.Next() {
		var s models.SubAccount
		if err := rows.Scan(&s.ID, &s.AgencyID, &s.ConnectAccountID, &s.Name, &s.SubAccountLogo, &s.CompanyEmail,
			&s.CompanyPhone, &s.Goal, &s.Address, &s.City, &s.ZipCode, &s.State, &s.Country, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		index[s.ID] = len(d.SubAccounts)
		d.SubAccounts = append(d.SubAccounts, models.SubAccountDetails{SubAccount: s, SidebarOptions: []models.SidebarOption{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const optQ = `SELECT o.subaccount_id, o.id, o.name, o.icon, o.link
		FROM subaccount_sidebar_options o
		INNER JOIN subaccounts s ON s.id = o.subaccount_id
		WHERE s.agency_id = $1
		ORDER BY o.position, o.name`
	optRows, err := r.pool.Query(ctx, optQ, id)
	if err != nil {
		return nil, fmt.Errorf("query subaccount sidebar: %w", err)
	}
	defer optRows.Close()
	for optRows.Next() {
		var subID string
		var o models.SidebarOption
		if err := optRows.Scan(&subID, &o.ID, &o.Name, &o.Icon, &o.Link); err != nil {
			return nil, err
		}
		if i, ok := index[subID]; ok {
			d.SubAccounts[i].SidebarOptions = append(d.SubAccounts[i].SidebarOptions, o)
		}
	}
	return d, optRows.Err()
}

func sidebarOptions(ctx context.Context, db database.DBTX, q, ownerID string) ([]models.SidebarOption, error) {
	rows, err := db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.SidebarOption{}
	for rows.Next() {
		var o models.SidebarOption
		if err := rows.Scan(&o.ID, &o.Name, &o.Icon, &o.Link); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Create inserts a new agency in one transaction. The user ownerID joins it and the
// default sidebar is written. An owner already in an agency, or an id that exists,
// is a conflict.
func (r *Repository) Create(ctx context.Context, a *models.Agency, ownerID string) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `INSERT INTO agencies (id, connect_account_id, customer_id, name, agency_logo, company_email,
				company_phone, white_label, address, city, zip_code, state, country, goal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING created_at, updated_at`
		if err := tx.QueryRow(ctx, q, a.ID, a.ConnectAccountID, a.CustomerID, a.Name, a.AgencyLogo, a.CompanyEmail,
			a.CompanyPhone, a.WhiteLabel, a.Address, a.City, a.ZipCode, a.State, a.Country, a.Goal).
			Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.New(apperr.EConflict, "agency already exists")
			}
			return fmt.Errorf("insert agency: %w", err)
		}
		ok, err := users.NewRepository(tx).JoinAgency(ctx, ownerID, a.ID)
		if err != nil {
			return fmt.Errorf("attach owner: %w", err)
		}
		if !ok {
			return apperr.New(apperr.EConflict, "user already belongs to an agency")
		}
		return InsertSidebarOptions(ctx, tx, "agency_sidebar_options", "agency_id", a.ID, AgencySidebar(a.ID))
	})
}

// Replace overwrites the details of agency a.ID when allow approves the caller. The row
// is locked between the check and the write. It reports false when the agency is gone.
func (r *Repository) Replace(ctx context.Context, a *models.Agency, allow func(*models.Agency) error) (bool, error) {
	found := false
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		existing, err := scanAgency(tx.QueryRow(ctx, `SELECT `+agencyColumns+` FROM agencies WHERE id = $1 FOR UPDATE`, a.ID))
		if database.IsNoRows(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock agency: %w", err)
		}
		if err := allow(existing); err != nil {
			return err
		}
		const q = `UPDATE agencies SET
				name = $2, agency_logo = $3, company_email = $4, company_phone = $5, white_label = $6,
				address = $7, city = $8, zip_code = $9, state = $10, country = $11, goal = $12, updated_at = NOW()
			WHERE id = $1
			RETURNING connect_account_id, customer_id, created_at, updated_at`
		if err := tx.QueryRow(ctx, q, a.ID, a.Name, a.AgencyLogo, a.CompanyEmail, a.CompanyPhone, a.WhiteLabel,
			a.Address, a.City, a.ZipCode, a.State, a.Country, a.Goal).
			Scan(&a.ConnectAccountID, &a.CustomerID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return fmt.Errorf("update agency: %w", err)
		}
		found = true
		return nil
	})
	return found, err
}

// InsertSidebarOptions writes opts in order for the owner row in table.
func InsertSidebarOptions(ctx context.Context, tx pgx.Tx, table, ownerColumn, ownerID string, opts []models.SidebarOption) error {
	batch := &pgx.Batch{}
	q := fmt.Sprintf(`INSERT INTO %s (id, name, icon, link, position, %s) VALUES ($1, $2, $3, $4, $5, $6)`, table, ownerColumn)
	for i, o := range opts {
		batch.Queue(q, uuid.NewString(), o.Name, o.Icon, o.Link, i, ownerID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// AgencySidebar returns the default navigation for a new agency.
func AgencySidebar(id string) []models.SidebarOption {
	base := "/agency/" + id
	return []models.SidebarOption{
		{Name: "Dashboard", Icon: "category", Link: base},
		{Name: "Launchpad", Icon: "clipboardIcon", Link: base + "/launchpad"},
		{Name: "Billing", Icon: "payment", Link: base + "/billing"},
		{Name: "Settings", Icon: "settings", Link: base + "/settings"},
		{Name: "Sub Accounts", Icon: "person", Link: base + "/all-subaccounts"},
		{Name: "Team", Icon: "shield", Link: base + "/team"},
	}
}

// Patch is a partial agency update; nil fields are left unchanged.
type Patch struct {
	Name         *string `json:"name"`
	AgencyLogo   *string `json:"agency_logo"`
	CompanyEmail *string `json:"company_email"`
	CompanyPhone *string `json:"company_phone"`
	WhiteLabel   *bool   `json:"white_label"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	ZipCode      *string `json:"zip_code"`
	State        *string `json:"state"`
	Country      *string `json:"country"`
	Goal         *int    `json:"goal"`
}

func (p Patch) assignments() ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.AgencyLogo != nil {
		add("agency_logo", *p.AgencyLogo)
	}
	if p.CompanyEmail != nil {
		add("company_email", *p.CompanyEmail)
	}
	if p.CompanyPhone != nil {
		add("company_phone", *p.CompanyPhone)
	}
	if p.WhiteLabel != nil {
		add("white_label", *p.WhiteLabel)
	}
	if p.Address != nil {
		add("address", *p.Address)
	}
	if p.City != nil {
		add("city", *p.City)
	}
	if p.ZipCode != nil {
		add("zip_code", *p.ZipCode)
	}
	if p.State != nil {
		add("state", *p.State)
	}
	if p.Country != nil {
		add("country", *p.Country)
	}
	if p.Goal != nil {
		add("goal", *p.Goal)
	}
	return sets, args
}

// Update applies p and returns the updated agency, or nil when it does not exist.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (*models.Agency, error) {
	sets, args := p.assignments()
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE agencies SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), agencyColumns)
	a, err := scanAgency(r.pool.QueryRow(ctx, q, args...))
	if database.IsNoRows(err) {
		return nil, nil
	}
	return a, err
}

// Delete removes the agency and, by cascade, everything it owns. Reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
