package invitations

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/internal/notifications"
	"github.com/agencyhub/backend/internal/users"
	"github.com/agencyhub/backend/pkg/database"
)

// PgStore is the PostgreSQL Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PostgreSQL-backed Store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// InTx runs fn in one transaction.
func (s *PgStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return database.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{
			tx:            tx,
			users:         users.NewRepository(tx),
			notifications: notifications.NewRepository(tx),
		})
	})
}

// FindUserByEmail returns the user or nil.
func (s *PgStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return users.NewRepository(s.pool).FindByEmail(ctx, email)
}

// Create inserts a PENDING invitation. A second pending invitation for the same email is a unique violation.
func (s *PgStore) Create(ctx context.Context, inv *models.Invitation) error {
	const q = `INSERT INTO invitations (id, email, agency_id, role, status) VALUES ($1, $2, $3, $4, $5)`
	_, err := s.pool.Exec(ctx, q, inv.ID, inv.Email, inv.AgencyID, inv.Role, inv.Status)
	return err
}

// ListByAgency returns the agency's invitations.
func (s *PgStore) ListByAgency(ctx context.Context, agencyID string) ([]models.Invitation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, agency_id, role, status FROM invitations WHERE agency_id = $1 ORDER BY email`, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Invitation{}
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(&inv.ID, &inv.Email, &inv.AgencyID, &inv.Role, &inv.Status); err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

type pgTx struct {
	tx            pgx.Tx
	users         *users.Repository
	notifications *notifications.Repository
}

func (t *pgTx) PendingInvitation(ctx context.Context, email string) (*models.Invitation, error) {
	const q = `SELECT id, email, agency_id, role, status FROM invitations
		WHERE email = $1 AND status = 'PENDING'
		FOR UPDATE`
	var inv models.Invitation
	err := t.tx.QueryRow(ctx, q, email).Scan(&inv.ID, &inv.Email, &inv.AgencyID, &inv.Role, &inv.Status)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (t *pgTx) CreateUser(ctx context.Context, u *models.User) error {
	return t.users.Create(ctx, u)
}

func (t *pgTx) CreateNotification(ctx context.Context, n *models.Notification) error {
	return t.notifications.Create(ctx, n)
}

func (t *pgTx) DeleteInvitation(ctx context.Context, email string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM invitations WHERE email = $1 AND status = 'PENDING'`, email)
	return err
}
