package notifications

import (
	"context"
	"fmt"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/database"
)

// Repository handles notification persistence. Notifications are never updated or deleted.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a notifications repository. db may be a pool or a transaction.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// Create appends n and fills its creation time.
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (id, notification, agency_id, subaccount_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	return r.db.QueryRow(ctx, q, n.ID, n.Notification, n.AgencyID, n.SubAccountID, n.UserID).Scan(&n.CreatedAt)
}

// ListByAgency returns the agency's notifications with their users, newest first.
func (r *Repository) ListByAgency(ctx context.Context, agencyID string, limit int) ([]models.NotificationWithUser, error) {
	const q = `SELECT n.id, n.notification, n.agency_id, n.subaccount_id, n.user_id, n.created_at,
			u.id, u.email, u.name, u.avatar_url, u.role, u.agency_id, u.created_at, u.updated_at
		FROM notifications n
		INNER JOIN users u ON u.id = n.user_id
		WHERE n.agency_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, agencyID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()
	list := []models.NotificationWithUser{}
	for rows.Next() {
		var n models.NotificationWithUser
		if err := rows.Scan(&n.ID, &n.Notification, &n.AgencyID, &n.SubAccountID, &n.UserID, &n.CreatedAt,
			&n.User.ID, &n.User.Email, &n.User.Name, &n.User.AvatarURL, &n.User.Role, &n.User.AgencyID,
			&n.User.CreatedAt, &n.User.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}
