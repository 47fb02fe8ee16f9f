package pipelines

import (
	"context"
	"fmt"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

// Store reads pipeline data.
type Store interface {
	GetByID(ctx context.Context, id string) (*models.Pipeline, error)
	LaneSubAccount(ctx context.Context, laneID string) (string, error)
	TicketsByPipeline(ctx context.Context, pipelineID string) ([]models.TicketDetails, error)
	TicketsByLane(ctx context.Context, laneID string) ([]models.TicketDetails, error)
}

// Authorizer checks the caller against a sub-account.
type Authorizer interface {
	Authorize(ctx context.Context, subAccountID string) error
}

// Service serves pipeline reads scoped to the caller's sub-accounts.
type Service struct {
	store Store
	authz Authorizer
}

// NewService creates a pipelines service.
func NewService(store Store, authz Authorizer) *Service {
	return &Service{store: store, authz: authz}
}

// Details returns a pipeline the caller may see.
func (s *Service) Details(ctx context.Context, pipelineID string) (*models.Pipeline, error) {
	p, err := s.store.GetByID(ctx, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("get pipeline: %w", err)
	}
	if p == nil {
		return nil, apperr.New(apperr.ENotFound, "pipeline not found")
	}
	if err := s.authz.Authorize(ctx, p.SubAccountID); err != nil {
		return nil, err
	}
	return p, nil
}

// TicketsWithTags returns the pipeline's tickets.
func (s *Service) TicketsWithTags(ctx context.Context, pipelineID string) ([]models.TicketDetails, error) {
	if _, err := s.Details(ctx, pipelineID); err != nil {
		return nil, err
	}
	return s.store.TicketsByPipeline(ctx, pipelineID)
}

// LaneTickets returns a lane's tickets with all relations.
func (s *Service) LaneTickets(ctx context.Context, laneID string) ([]models.TicketDetails, error) {
	subID, err := s.store.LaneSubAccount(ctx, laneID)
	if err != nil {
		return nil, fmt.Errorf("get lane: %w", err)
	}
	if subID == "" {
		return nil, apperr.New(apperr.ENotFound, "lane not found")
	}
	if err := s.authz.Authorize(ctx, subID); err != nil {
		return nil, err
	}
	return s.store.TicketsByLane(ctx, laneID)
}
