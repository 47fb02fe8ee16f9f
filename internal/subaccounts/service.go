package subaccounts

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

// Store is the sub-account persistence used by Service.
type Store interface {
	Upsert(ctx context.Context, s *models.SubAccount, ownerEmail string) (bool, error)
}

// UserFinder resolves the caller and the agency owner.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindAgencyOwner(ctx context.Context, agencyID string) (*models.User, error)
}

// Service implements sub-account provisioning.
type Service struct {
	store  Store
	users  UserFinder
	logger *zap.Logger
}

// NewService creates a sub-accounts service.
func NewService(store Store, users UserFinder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, users: users, logger: logger}
}

// Upsert creates or updates a sub-account under its agency.
func (s *Service) Upsert(ctx context.Context, sub *models.SubAccount) (*models.SubAccount, error) {
	const op = "subaccounts.Upsert"
	session, ok := identity.SessionFromContext(ctx)
	if !ok {
		return nil, &apperr.Error{Code: apperr.EUnauthenticated, Op: op, Msg: "authentication required"}
	}
	sub.CompanyEmail = strings.TrimSpace(sub.CompanyEmail)
	sub.Name = strings.TrimSpace(sub.Name)
	switch {
	case sub.CompanyEmail == "":
		return nil, &apperr.Error{Code: apperr.EInvalid, Op: op, Msg: "company email is required"}
	case sub.Name == "":
		return nil, &apperr.Error{Code: apperr.EInvalid, Op: op, Msg: "name is required"}
	case sub.AgencyID == "":
		return nil, &apperr.Error{Code: apperr.EInvalid, Op: op, Msg: "agency id is required"}
	}

	caller, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("find caller: %w", err)
	}
	if caller == nil || caller.AgencyIDValue() != sub.AgencyID || !caller.Role.IsAgencyRole() {
		return nil, &apperr.Error{Code: apperr.EForbidden, Op: op, Msg: "insufficient permissions"}
	}

	owner, err := s.users.FindAgencyOwner(ctx, sub.AgencyID)
	if err != nil {
		return nil, fmt.Errorf("find agency owner: %w", err)
	}
	if owner == nil {
		s.logger.Warn("could not create subaccount: agency has no owner", zap.String("agency_id", sub.AgencyID))
		return nil, &apperr.Error{Code: apperr.ENotFound, Op: op, Msg: "agency owner not found"}
	}

	created, err := s.store.Upsert(ctx, sub, owner.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("subaccount upserted",
		zap.String("subaccount_id", sub.ID),
		zap.String("agency_id", sub.AgencyID),
		zap.Bool("created", created),
	)
	return sub, nil
}
