package agencies

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

// Store is the agency persistence used by Service.
type Store interface {
	Create(ctx context.Context, a *models.Agency, ownerID string) error
	Replace(ctx context.Context, a *models.Agency, allow func(*models.Agency) error) (bool, error)
	Update(ctx context.Context, id string, p Patch) (*models.Agency, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UserFinder loads local users by identity id.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Service implements agency provisioning and maintenance.
type Service struct {
	store  Store
	users  UserFinder
	logger *zap.Logger
}

// NewService creates an agencies service.
func NewService(store Store, users UserFinder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, users: users, logger: logger}
}

// Upsert creates an agency or replaces an existing one's details.
func (s *Service) Upsert(ctx context.Context, a *models.Agency) (*models.Agency, error) {
	const op = "agencies.Upsert"
	session, ok := identity.SessionFromContext(ctx)
	if !ok {
		return nil, &apperr.Error{Code: apperr.EUnauthenticated, Op: op, Msg: "authentication required"}
	}
	a.CompanyEmail = strings.TrimSpace(a.CompanyEmail)
	a.Name = strings.TrimSpace(a.Name)
	if a.CompanyEmail == "" {
		return nil, &apperr.Error{Code: apperr.EInvalid, Op: op, Msg: "company email is required"}
	}
	if a.Name == "" {
		return nil, &apperr.Error{Code: apperr.EInvalid, Op: op, Msg: "name is required"}
	}

	caller, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("find caller: %w", err)
	}

	if a.ID != "" {
		found, err := s.store.Replace(ctx, a, func(*models.Agency) error {
			if caller == nil || caller.AgencyIDValue() != a.ID || !caller.Role.IsAgencyRole() {
				return &apperr.Error{Code: apperr.EForbidden, Op: op, Msg: "insufficient permissions"}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if found {
			s.logger.Info("agency updated", zap.String("agency_id", a.ID))
			return a, nil
		}
	}

	// A new agency is owned by the caller, who must not belong to one already.
	if caller == nil {
		return nil, &apperr.Error{Code: apperr.EForbidden, Op: op, Msg: "user is not initialized"}
	}
	if caller.AgencyIDValue() != "" {
		return nil, &apperr.Error{Code: apperr.EConflict, Op: op, Msg: "user already belongs to an agency"}
	}
	if !strings.EqualFold(caller.Email, a.CompanyEmail) {
		return nil, &apperr.Error{Code: apperr.EForbidden, Op: op, Msg: "company email must be your own"}
	}
	if err := s.store.Create(ctx, a, caller.ID); err != nil {
		return nil, err
	}
	s.logger.Info("agency created", zap.String("agency_id", a.ID), zap.String("owner_id", caller.ID))
	return a, nil
}

// UpdateDetails applies a partial update.
func (s *Service) UpdateDetails(ctx context.Context, id string, p Patch) (*models.Agency, error) {
	if p.CompanyEmail != nil && strings.TrimSpace(*p.CompanyEmail) == "" {
		return nil, apperr.New(apperr.EInvalid, "company email cannot be empty")
	}
	a, err := s.store.Update(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("update agency: %w", err)
	}
	if a == nil {
		return nil, apperr.New(apperr.ENotFound, "agency not found")
	}
	return a, nil
}

// Delete removes an agency with its sub-accounts. Members are kept, detached from it.
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete agency: %w", err)
	}
	if !ok {
		return apperr.New(apperr.ENotFound, "agency not found")
	}
	s.logger.Info("agency deleted", zap.String("agency_id", id))
	return nil
}
