package subaccounts

import (
	"context"
	"fmt"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/pkg/apperr"
)

// CanAccess reports whether userID may work in subAccountID: agency owners and admins
// of the owning agency always can, everyone else needs a granted permission.
func (r *Repository) CanAccess(ctx context.Context, userID, subAccountID string) (bool, error) {
	const q = `SELECT EXISTS (
			SELECT 1 FROM users u
			INNER JOIN subaccounts s ON s.agency_id = u.agency_id
			WHERE u.id = $1 AND s.id = $2 AND u.role IN ('AGENCY_OWNER', 'AGENCY_ADMIN')
		) OR EXISTS (
			SELECT 1 FROM users u
			INNER JOIN permissions p ON p.email = u.email
			WHERE u.id = $1 AND p.subaccount_id = $2 AND p.access
		)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, userID, subAccountID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// AccessChecker decides sub-account access for a user.
type AccessChecker interface {
	CanAccess(ctx context.Context, userID, subAccountID string) (bool, error)
}

// Authorizer checks the signed-in user against a sub-account.
type Authorizer struct {
	checker AccessChecker
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(checker AccessChecker) *Authorizer {
	return &Authorizer{checker: checker}
}

// Authorize returns nil when the session in ctx may access subAccountID.
func (a *Authorizer) Authorize(ctx context.Context, subAccountID string) error {
	session, ok := identity.SessionFromContext(ctx)
	if !ok {
		return apperr.New(apperr.EUnauthenticated, "authentication required")
	}
	allowed, err := a.checker.CanAccess(ctx, session.UserID, subAccountID)
	if err != nil {
		return fmt.Errorf("check subaccount access: %w", err)
	}
	if !allowed {
		return apperr.New(apperr.EForbidden, "no access to this subaccount")
	}
	return nil
}
