package subaccounts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/subaccounts"
	"github.com/agencyhub/backend/pkg/apperr"
)

type grants map[string]bool // "user/subaccount"

func (g grants) CanAccess(_ context.Context, userID, subAccountID string) (bool, error) {
	if userID == "broken" {
		return false, errors.New("db down")
	}
	return g[userID+"/"+subAccountID], nil
}

func TestAuthorize(t *testing.T) {
	a := subaccounts.NewAuthorizer(grants{"u1/s1": true})

	require.NoError(t, a.Authorize(signedIn("u1"), "s1"))
	require.True(t, apperr.Is(a.Authorize(signedIn("u1"), "s2"), apperr.EForbidden))
	require.True(t, apperr.Is(a.Authorize(context.Background(), "s1"), apperr.EUnauthenticated))

	err := a.Authorize(identity.WithSession(context.Background(), &identity.Session{UserID: "broken"}), "s1")
	require.Error(t, err)
	require.Equal(t, apperr.EInternal, apperr.ErrorCode(err))
}
