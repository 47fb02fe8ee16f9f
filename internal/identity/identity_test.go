package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
)

func TestSessionVerifierRoundTrip(t *testing.T) {
	v := identity.NewSessionVerifier("secret")
	token, err := v.Issue("user_1", "a@example.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	s, err := v.Authenticate(req)
	require.NoError(t, err)
	require.Equal(t, "user_1", s.UserID)
	require.Equal(t, "a@example.com", s.Email)
	require.NotEmpty(t, s.SessionID)
}

func TestSessionVerifierCookieAndFailures(t *testing.T) {
	v := identity.NewSessionVerifier("secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := v.Authenticate(req)
	require.ErrorIs(t, err, identity.ErrNoSession)

	forged, err := identity.NewSessionVerifier("other").Issue("user_1", "", time.Minute)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: identity.SessionCookie, Value: forged})
	_, err = v.Authenticate(req)
	require.ErrorIs(t, err, identity.ErrInvalidSession)

	expired, err := v.Issue("user_1", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	require.ErrorIs(t, err, identity.ErrInvalidSession)
}

func TestClientCurrentUserAndRoleClaim(t *testing.T) {
	var patched map[string]map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/users/user_1":
			_ = json.NewEncoder(w).Encode(identity.User{
				ID:             "user_1",
				EmailAddresses: []identity.EmailAddress{{ID: "e1", EmailAddress: "user@example.com"}},
				FirstName:      "Ada",
				LastName:       "Lovelace",
			})
		case r.Method == http.MethodPatch && r.URL.Path == "/v1/users/user_1/metadata":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := identity.NewClient(srv.URL, "sk_test", identity.NewSessionVerifier("secret"), time.Second, nil)

	u, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Nil(t, u)

	ctx := identity.WithSession(context.Background(), &identity.Session{UserID: "user_1"})
	u, err = c.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", u.PrimaryEmail())
	require.Equal(t, "Ada Lovelace", u.FullName())

	require.NoError(t, c.UpdateRoleClaim(ctx, "user_1", models.RoleSubAccountUser))
	require.Equal(t, "SUBACCOUNT_USER", patched["private_metadata"]["role"])

	err = c.UpdateRoleClaim(ctx, "missing", models.RoleAgencyAdmin)
	require.Error(t, err)
}
