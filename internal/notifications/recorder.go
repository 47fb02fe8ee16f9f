// Package notifications records the agency activity log and serves it.
package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

// Store appends notifications.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
}

// UserLookup resolves the acting user.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FirstInAgencyOfSubAccount(ctx context.Context, subAccountID string) (*models.User, error)
}

// SubAccountLookup resolves a sub-account's agency.
type SubAccountLookup interface {
	GetByID(ctx context.Context, id string) (*models.SubAccount, error)
}

// Publisher pushes a committed notification to live subscribers.
type Publisher interface {
	PublishNotification(ctx context.Context, n models.Notification) error
}

// Entry is one activity to record. AgencyID is derived from the sub-account when empty.
type Entry struct {
	AgencyID     string `json:"agency_id"`
	Description  string `json:"description"`
	SubAccountID string `json:"subaccount_id"`
}

// Recorder appends tenant-scoped activity notifications.
type Recorder struct {
	store       Store
	users       UserLookup
	subaccounts SubAccountLookup
	directory   identity.Directory
	publisher   Publisher
	logger      *zap.Logger
}

// NewRecorder creates a recorder. publisher may be nil.
func NewRecorder(store Store, users UserLookup, subaccounts SubAccountLookup, directory identity.Directory, publisher Publisher, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:       store,
		users:       users,
		subaccounts: subaccounts,
		directory:   directory,
		publisher:   publisher,
		logger:      logger,
	}
}

// Record writes "{user name} | {description}" for the acting user. When no acting
// user can be found nothing is written and nil is returned.
func (r *Recorder) Record(ctx context.Context, e Entry) (*models.Notification, error) {
	const op = "notifications.Record"
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" || e.SubAccountID == "" {
		return nil, &apperr.Error{Code: apperr.EInvalid, Op: op, Msg: "description and subaccount id are required"}
	}

	user, err := r.actingUser(ctx, e.SubAccountID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		r.logger.Warn("could not find a user for activity log",
			zap.String("subaccount_id", e.SubAccountID),
			zap.String("code", apperr.EBestEffortFailure),
		)
		return nil, nil
	}

	agencyID := e.AgencyID
	if agencyID == "" {
		sub, err := r.subaccounts.GetByID(ctx, e.SubAccountID)
		if err != nil {
			return nil, fmt.Errorf("get subaccount: %w", err)
		}
		if sub == nil {
			return nil, &apperr.Error{Code: apperr.ENotFound, Op: op, Msg: fmt.Sprintf("subaccount with id %s not found", e.SubAccountID)}
		}
		agencyID = sub.AgencyID
	}

	subID := e.SubAccountID
	n := &models.Notification{
		ID:           uuid.NewString(),
		Notification: user.Name + " | " + e.Description,
		AgencyID:     agencyID,
		SubAccountID: &subID,
		UserID:       user.ID,
	}
	if err := r.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	if r.publisher != nil {
		if err := r.publisher.PublishNotification(ctx, *n); err != nil {
			r.logger.Warn("publish notification", zap.String("agency_id", agencyID), zap.Error(err))
		}
	}
	return n, nil
}

// actingUser is the signed-in user by email, or without a session the first
// user of the agency owning the sub-account.
func (r *Recorder) actingUser(ctx context.Context, subAccountID string) (*models.User, error) {
	session, ok := identity.SessionFromContext(ctx)
	if !ok {
		u, err := r.users.FirstInAgencyOfSubAccount(ctx, subAccountID)
		if err != nil {
			return nil, fmt.Errorf("find agency user: %w", err)
		}
		return u, nil
	}
	email := session.Email
	if email == "" {
		current, err := r.directory.CurrentUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("current user: %w", err)
		}
		email = current.PrimaryEmail()
	}
	if email == "" {
		return nil, nil
	}
	u, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}
