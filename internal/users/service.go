package users

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

// Store is the user persistence used by Service.
type Store interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpsertByEmail(ctx context.Context, u *models.User) (*models.User, error)
	Permissions(ctx context.Context, userID string) ([]models.Permission, error)
}

// AgencyLoader loads an agency with its sidebar and sub-accounts.
type AgencyLoader interface {
	Details(ctx context.Context, agencyID string) (*models.AgencyDetails, error)
}

// Service implements the signed-in user procedures.
type Service struct {
	store     Store
	agencies  AgencyLoader
	directory identity.Directory
	logger    *zap.Logger
}

// NewService creates a users service.
func NewService(store Store, agencies AgencyLoader, directory identity.Directory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, agencies: agencies, directory: directory, logger: logger}
}

func sessionFrom(ctx context.Context, op string) (*identity.Session, error) {
	s, ok := identity.SessionFromContext(ctx)
	if !ok {
		return nil, &apperr.Error{Code: apperr.EUnauthenticated, Op: op, Msg: "authentication required"}
	}
	return s, nil
}

// AuthUserDetails returns the signed-in user with agency tree and permissions, or nil when
// the user has no local record yet.
func (s *Service) AuthUserDetails(ctx context.Context) (*models.UserDetails, error) {
	session, err := sessionFrom(ctx, "users.AuthUserDetails")
	if err != nil {
		return nil, err
	}
	u, err := s.store.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, nil
	}
	details := &models.UserDetails{User: *u}
	if id := u.AgencyIDValue(); id != "" {
		if details.Agency, err = s.agencies.Details(ctx, id); err != nil {
			return nil, fmt.Errorf("load agency: %w", err)
		}
	}
	if details.Permissions, err = s.store.Permissions(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	return details, nil
}

// InitUser creates or updates the signed-in user's record with role and mirrors the
// role into the identity provider's private metadata. Members of an agency keep the
// role their agency gave them.
func (s *Service) InitUser(ctx context.Context, role models.Role) (*models.User, error) {
	if role != "" && !role.Valid() {
		return nil, apperr.Newf(apperr.EInvalid, "unknown role %q", role)
	}
	current, err := s.directory.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if current == nil {
		return nil, &apperr.Error{Code: apperr.EUnauthenticated, Op: "users.InitUser", Msg: "authentication required"}
	}
	email := current.PrimaryEmail()
	if email == "" {
		return nil, apperr.New(apperr.EInvalid, "user email is missing")
	}
	existing, err := s.store.FindByID(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if existing != nil && existing.AgencyIDValue() != "" {
		if role != "" && role != existing.Role {
			return nil, &apperr.Error{Code: apperr.EForbidden, Op: "users.InitUser", Msg: "role is managed by your agency"}
		}
		role = existing.Role
	}
	role = role.OrDefault()

	u, err := s.store.UpsertByEmail(ctx, &models.User{
		ID:        current.ID,
		Email:     email,
		Name:      current.FullName(),
		AvatarURL: current.ImageURL,
		Role:      role,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	if err := s.directory.UpdateRoleClaim(ctx, current.ID, u.Role); err != nil {
		return nil, fmt.Errorf("update role claim: %w", err)
	}
	s.logger.Info("user initialized", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Permissions returns userID's sub-account permissions. Callers may read their own, or
// those of a member of an agency they manage.
func (s *Service) Permissions(ctx context.Context, userID string) ([]models.Permission, error) {
	session, err := sessionFrom(ctx, "users.Permissions")
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		caller, err := s.store.FindByID(ctx, session.UserID)
		if err != nil {
			return nil, fmt.Errorf("find caller: %w", err)
		}
		target, err := s.store.FindByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("find user: %w", err)
		}
		if target == nil {
			return nil, apperr.New(apperr.ENotFound, "user not found")
		}
		if caller == nil || !caller.Role.IsAgencyRole() || caller.AgencyIDValue() == "" ||
			caller.AgencyIDValue() != target.AgencyIDValue() {
			return nil, apperr.New(apperr.EForbidden, "insufficient permissions")
		}
	}
	return s.store.Permissions(ctx, userID)
}
