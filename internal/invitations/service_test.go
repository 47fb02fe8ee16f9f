package invitations_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/invitations"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

type invitationStore struct {
	pending map[string]bool
	created []models.Invitation
}

func (s *invitationStore) Create(_ context.Context, inv *models.Invitation) error {
	if s.pending[inv.Email] {
		return &pgconn.PgError{Code: "23505"}
	}
	s.pending[inv.Email] = true
	s.created = append(s.created, *inv)
	return nil
}

func (s *invitationStore) ListByAgency(context.Context, string) ([]models.Invitation, error) {
	return s.created, nil
}

func TestInvite(t *testing.T) {
	store := &invitationStore{pending: map[string]bool{}}
	svc := invitations.NewService(store, nil)

	inv, err := svc.Invite(context.Background(), "A1", " new@example.com ", "")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", inv.Email)
	require.Equal(t, models.RoleSubAccountUser, inv.Role)
	require.Equal(t, models.InvitationPending, inv.Status)

	_, err = svc.Invite(context.Background(), "A1", "new@example.com", models.RoleAgencyAdmin)
	require.True(t, apperr.Is(err, apperr.EConflict))

	_, err = svc.Invite(context.Background(), "A1", "not-an-email", "")
	require.True(t, apperr.Is(err, apperr.EInvalid))

	_, err = svc.Invite(context.Background(), "A1", "x@example.com", "ROOT")
	require.True(t, apperr.Is(err, apperr.EInvalid))
}
