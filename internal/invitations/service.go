package invitations

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/database"
)

// InvitationStore persists invitations.
type InvitationStore interface {
	Create(ctx context.Context, inv *models.Invitation) error
	ListByAgency(ctx context.Context, agencyID string) ([]models.Invitation, error)
}

// Service manages an agency's invitations.
type Service struct {
	store  InvitationStore
	logger *zap.Logger
}

// NewService creates an invitations service.
func NewService(store InvitationStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Invite records a PENDING invitation of email to agencyID with role.
func (s *Service) Invite(ctx context.Context, agencyID, email string, role models.Role) (*models.Invitation, error) {
	const op = "invitations.Invite"
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &apperr.Error{Code: apperr.EInvalid, Op: op, Msg: "a valid email is required"}
	}
	role = role.OrDefault()
	if !role.Valid() {
		return nil, &apperr.Error{Code: apperr.EInvalid, Op: op, Msg: fmt.Sprintf("unknown role %q", role)}
	}
	inv := &models.Invitation{
		ID:       uuid.NewString(),
		Email:    email,
		AgencyID: agencyID,
		Role:     role,
		Status:   models.InvitationPending,
	}
	if err := s.store.Create(ctx, inv); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, &apperr.Error{Code: apperr.EConflict, Op: op, Msg: "a pending invitation already exists for this email"}
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	s.logger.Info("invitation created", zap.String("agency_id", agencyID), zap.String("role", string(role)))
	return inv, nil
}

// List returns the agency's invitations.
func (s *Service) List(ctx context.Context, agencyID string) ([]models.Invitation, error) {
	return s.store.ListByAgency(ctx, agencyID)
}
