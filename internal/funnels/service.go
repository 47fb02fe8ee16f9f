package funnels

import (
	"context"
	"fmt"
	"strings"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

// Store reads funnels.
type Store interface {
	ListBySubAccount(ctx context.Context, subAccountID string) ([]models.FunnelWithPages, error)
	GetBySubDomain(ctx context.Context, subDomainName string) (*models.FunnelWithPages, error)
}

// Authorizer checks the caller against a sub-account.
type Authorizer interface {
	Authorize(ctx context.Context, subAccountID string) error
}

// Service serves funnel reads.
type Service struct {
	store Store
	authz Authorizer
}

// NewService creates a funnels service.
func NewService(store Store, authz Authorizer) *Service {
	return &Service{store: store, authz: authz}
}

// List returns the sub-account's funnels with their pages.
func (s *Service) List(ctx context.Context, subAccountID string) ([]models.FunnelWithPages, error) {
	if err := s.authz.Authorize(ctx, subAccountID); err != nil {
		return nil, err
	}
	list, err := s.store.ListBySubAccount(ctx, subAccountID)
	if err != nil {
		return nil, fmt.Errorf("list funnels: %w", err)
	}
	return list, nil
}

// Published returns the published funnel for a tenant slug. Unpublished and
// unknown slugs are both reported as not found.
func (s *Service) Published(ctx context.Context, slug string) (*models.FunnelWithPages, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, apperr.New(apperr.ENotFound, "site not found")
	}
	f, err := s.store.GetBySubDomain(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get funnel by subdomain: %w", err)
	}
	if f == nil || !f.Published {
		return nil, apperr.New(apperr.ENotFound, "site not found")
	}
	return f, nil
}

// Page returns the page of f served at pathName; an empty path selects the
// first page by order. It returns nil when no page matches.
func Page(f *models.FunnelWithPages, pathName string) *models.FunnelPage {
	pathName = strings.Trim(pathName, "/")
	if pathName == "" {
		if len(f.Pages) == 0 {
			return nil
		}
		return &f.Pages[0]
	}
	for i := range f.Pages {
		if strings.Trim(f.Pages[i].PathName, "/") == pathName {
			return &f.Pages[i]
		}
	}
	return nil
}
