package media

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/database"
	"github.com/agencyhub/backend/pkg/queue"
)

// Store persists media rows.
type Store interface {
	ListBySubAccount(ctx context.Context, subAccountID string) ([]models.Media, error)
	GetByID(ctx context.Context, id string) (*models.Media, error)
	Create(ctx context.Context, m *models.Media) error
	Delete(ctx context.Context, id string) (bool, error)
}

// SubAccountLookup resolves sub-accounts.
type SubAccountLookup interface {
	GetByID(ctx context.Context, id string) (*models.SubAccount, error)
}

// Authorizer checks the caller against a sub-account.
type Authorizer interface {
	Authorize(ctx context.Context, subAccountID string) error
}

// CleanupQueue schedules removal of stored objects.
type CleanupQueue interface {
	EnqueueMediaDelete(ctx context.Context, payload queue.MediaDeletePayload) error
}

// Presigner issues time-limited download links.
type Presigner interface {
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
}

// Service manages a sub-account's media library.
type Service struct {
	store       Store
	subaccounts SubAccountLookup
	authz       Authorizer
	cleanup     CleanupQueue
	presigner   Presigner
	logger      *zap.Logger
}

// NewService creates a media service.
func NewService(store Store, subaccounts SubAccountLookup, authz Authorizer, cleanup CleanupQueue, presigner Presigner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, subaccounts: subaccounts, authz: authz, cleanup: cleanup, presigner: presigner, logger: logger}
}

// List returns the sub-account with its media.
func (s *Service) List(ctx context.Context, subAccountID string) (*models.SubAccountMedia, error) {
	if err := s.authz.Authorize(ctx, subAccountID); err != nil {
		return nil, err
	}
	sub, err := s.subaccounts.GetByID(ctx, subAccountID)
	if err != nil {
		return nil, fmt.Errorf("get subaccount: %w", err)
	}
	if sub == nil {
		return nil, apperr.New(apperr.ENotFound, "subaccount not found")
	}
	list, err := s.store.ListBySubAccount(ctx, subAccountID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return &models.SubAccountMedia{SubAccount: *sub, Media: list}, nil
}

// Create records an uploaded file in the sub-account's library.
func (s *Service) Create(ctx context.Context, m *models.Media) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.SubAccountID == "" || m.Link == "" || m.Name == "" {
		return apperr.New(apperr.EInvalid, "subaccount_id, name and link are required")
	}
	if err := s.authz.Authorize(ctx, m.SubAccountID); err != nil {
		return err
	}
	if err := s.store.Create(ctx, m); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.New(apperr.EConflict, "media link already exists")
		}
		return err
	}
	return nil
}

// Delete removes a media row and schedules its object for removal. A failed
// enqueue leaves the object orphaned but the row stays deleted.
func (s *Service) Delete(ctx context.Context, id string) (*models.Media, error) {
	m, err := s.authorized(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	if !ok {
		return nil, apperr.New(apperr.ENotFound, "media not found")
	}
	s.ScheduleCleanup(ctx, m.ID, m.ObjectKey)
	return m, nil
}

// DownloadURL returns a pre-signed link to the media object.
func (s *Service) DownloadURL(ctx context.Context, id string) (string, error) {
	m, err := s.authorized(ctx, id)
	if err != nil {
		return "", err
	}
	if m.ObjectKey == "" || s.presigner == nil {
		return m.Link, nil
	}
	url, err := s.presigner.PresignedDownloadURL(ctx, m.ObjectKey)
	if err != nil {
		return "", fmt.Errorf("presign media: %w", err)
	}
	return url, nil
}

// ScheduleCleanup enqueues deletion of an object key. Failures are logged.
func (s *Service) ScheduleCleanup(ctx context.Context, mediaID, key string) {
	if key == "" {
		return
	}
	if err := s.cleanup.EnqueueMediaDelete(ctx, queue.MediaDeletePayload{MediaID: mediaID, Key: key}); err != nil {
		s.logger.Error("enqueue media cleanup failed", zap.String("media_id", mediaID), zap.String("s3_key", key), zap.Error(err))
	}
}

func (s *Service) authorized(ctx context.Context, id string) (*models.Media, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	if m == nil {
		return nil, apperr.New(apperr.ENotFound, "media not found")
	}
	if err := s.authz.Authorize(ctx, m.SubAccountID); err != nil {
		return nil, err
	}
	return m, nil
}
