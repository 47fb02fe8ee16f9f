// Package invitations turns a signed-in identity into a tenant membership.
package invitations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

// ErrMissingEmail is returned when the signed-in identity has no email address.
var ErrMissingEmail = errors.New("user email is missing")

// JoinedDescription is recorded when an invited user accepts.
const JoinedDescription = "Joined"

// Outcome classifies a reconciliation.
type Outcome string

const (
	// OutcomeNoSession means nobody is signed in.
	OutcomeNoSession Outcome = "no_session"
	// OutcomeAccepted means a pending invitation was turned into a membership.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeExistingUser means no invitation was pending and the user already has a record.
	OutcomeExistingUser Outcome = "existing_user"
	// OutcomeNewUser means there is neither an invitation nor a user record.
	OutcomeNewUser Outcome = "new_user"
	// OutcomeOwnerInvitationSkipped means the pending invitation was for AGENCY_OWNER and was left untouched.
	OutcomeOwnerInvitationSkipped Outcome = "owner_invitation_skipped"
)

// Result is the typed outcome of Reconcile. AgencyID is empty when the user has no agency.
type Result struct {
	Outcome  Outcome      `json:"outcome"`
	AgencyID string       `json:"agency_id,omitempty"`
	User     *models.User `json:"user,omitempty"`
}

// Tx is the unit of work a reconciliation runs in.
type Tx interface {
	// PendingInvitation locks and returns the PENDING invitation for email, or nil.
	PendingInvitation(ctx context.Context, email string) (*models.Invitation, error)
	CreateUser(ctx context.Context, u *models.User) error
	CreateNotification(ctx context.Context, n *models.Notification) error
	DeleteInvitation(ctx context.Context, email string) error
}

// Store opens transactions and reads users outside of them.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Publisher pushes a committed notification to live subscribers.
type Publisher interface {
	PublishNotification(ctx context.Context, n models.Notification) error
}

// errSkipOwner aborts the transaction without writes.
var errSkipOwner = errors.New("owner invitation skipped")

// Reconciler implements invitation acceptance at sign-in.
type Reconciler struct {
	store     Store
	directory identity.Directory
	publisher Publisher
	logger    *zap.Logger
}

// NewReconciler creates a reconciler. publisher may be nil.
func NewReconciler(store Store, directory identity.Directory, publisher Publisher, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, directory: directory, publisher: publisher, logger: logger}
}

// Reconcile accepts the signed-in user's pending invitation, if any, and reports the
// agency the user belongs to. Backend faults are returned with code reconciliation failure.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	const op = "invitations.Reconcile"
	if _, ok := identity.SessionFromContext(ctx); !ok {
		return Result{Outcome: OutcomeNoSession}, nil
	}
	current, err := r.directory.CurrentUser(ctx)
	if err != nil {
		return Result{}, &apperr.Error{Code: apperr.EReconciliationFailure, Op: op, Msg: "load current user", Err: err}
	}
	if current == nil {
		return Result{Outcome: OutcomeNoSession}, nil
	}
	email := current.PrimaryEmail()
	if email == "" {
		r.logger.Error("reconcile invitation", zap.String("user_id", current.ID), zap.Error(ErrMissingEmail))
		return Result{}, &apperr.Error{Code: apperr.EInvalid, Op: op, Msg: ErrMissingEmail.Error(), Err: ErrMissingEmail}
	}

	var (
		res    Result
		joined *models.Notification
	)
	err = r.store.InTx(ctx, func(tx Tx) error {
		inv, err := tx.PendingInvitation(ctx, email)
		if err != nil {
			return fmt.Errorf("find pending invitation: %w", err)
		}
		if inv == nil {
			return nil
		}
		if inv.Role == models.RoleAgencyOwner {
			return errSkipOwner
		}

		agencyID := inv.AgencyID
		u := &models.User{
			ID:        current.ID,
			Email:     inv.Email,
			Name:      current.FirstName + " " + current.LastName,
			AvatarURL: current.ImageURL,
			Role:      inv.Role,
			AgencyID:  &agencyID,
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create team user: %w", err)
		}

		n := &models.Notification{
			ID:           uuid.NewString(),
			Notification: u.Name + " | " + JoinedDescription,
			AgencyID:     agencyID,
			UserID:       u.ID,
		}
		if err := tx.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("record joined notification: %w", err)
		}
		if err := r.directory.UpdateRoleClaim(ctx, u.ID, u.Role.OrDefault()); err != nil {
			return fmt.Errorf("update role claim: %w", err)
		}
		if err := tx.DeleteInvitation(ctx, u.Email); err != nil {
			return fmt.Errorf("delete invitation: %w", err)
		}

		res = Result{Outcome: OutcomeAccepted, AgencyID: agencyID, User: u}
		joined = n
		return nil
	})
	switch {
	case errors.Is(err, errSkipOwner):
		r.logger.Info("owner invitation left pending", zap.String("user_id", current.ID))
		return Result{Outcome: OutcomeOwnerInvitationSkipped}, nil
	case err != nil:
		return Result{}, &apperr.Error{Code: apperr.EReconciliationFailure, Op: op, Msg: "accept invitation", Err: err}
	}

	if res.Outcome == OutcomeAccepted {
		r.logger.Info("invitation accepted",
			zap.String("user_id", res.User.ID),
			zap.String("agency_id", res.AgencyID),
			zap.String("role", string(res.User.Role)),
		)
		r.publish(ctx, *joined)
		return res, nil
	}

	existing, err := r.store.FindUserByEmail(ctx, email)
	if err != nil {
		return Result{}, &apperr.Error{Code: apperr.EReconciliationFailure, Op: op, Msg: "find user", Err: err}
	}
	if existing == nil {
		return Result{Outcome: OutcomeNewUser}, nil
	}
	return Result{Outcome: OutcomeExistingUser, AgencyID: existing.AgencyIDValue(), User: existing}, nil
}

func (r *Reconciler) publish(ctx context.Context, n models.Notification) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishNotification(ctx, n); err != nil {
		r.logger.Warn("publish notification", zap.String("agency_id", n.AgencyID), zap.Error(err))
	}
}
