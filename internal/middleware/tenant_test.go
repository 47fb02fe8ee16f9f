package middleware_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/middleware"
	"github.com/agencyhub/backend/pkg/apperr"
)

func newResolver(t *testing.T) *middleware.TenantResolver {
	t.Helper()
	r, err := middleware.NewTenantResolver("example.com")
	require.NoError(t, err)
	return r
}

func TestNewTenantResolverRequiresBaseDomain(t *testing.T) {
	r, err := middleware.NewTenantResolver("  ")
	require.Nil(t, r)
	require.True(t, apperr.Is(err, apperr.EConfigurationMissing))
}

func TestResolveSubdomainRewritePreservesPathAndQuery(t *testing.T) {
	r := newResolver(t)

	cases := []struct {
		host, path, query, want string
	}{
		{"acme.example.com", "/", "", "/acme/"},
		{"acme.example.com", "/pricing", "", "/acme/pricing"},
		{"acme.example.com", "/pricing", "ref=ad&utm=%20x", "/acme/pricing?ref=ad&utm=%20x"},
		{"ACME.Example.com:3000", "/agency", "a=1", "/acme/agency?a=1"},
		{"shop.acme.example.com", "/x", "", "/shop.acme/x"},
	}
	for _, tc := range cases {
		out := r.Resolve(tc.host, tc.path, tc.query)
		require.Equal(t, middleware.ActionRewrite, out.Action, tc.host+tc.path)
		require.Equal(t, tc.want, out.Path)
	}
}

func TestResolveBaseDomainNeverTakesSubdomainBranch(t *testing.T) {
	r := newResolver(t)

	out := r.Resolve("example.com", "/pricing", "a=1")
	require.Equal(t, middleware.ActionContinue, out.Action)

	out = r.Resolve("example.com:8080", "/", "")
	require.Equal(t, middleware.Outcome{Action: middleware.ActionRewrite, Path: "/site"}, out)

	// a host that merely ends with the base domain text is not a sub-domain
	out = r.Resolve("notexample.com", "/pricing", "")
	require.Equal(t, middleware.ActionContinue, out.Action)
}

func TestResolveSignInRedirects(t *testing.T) {
	r := newResolver(t)

	for _, p := range []string{"/sign-in", "/sign-up"} {
		out := r.Resolve("example.com", p, "next=/x")
		require.Equal(t, middleware.Outcome{Action: middleware.ActionRedirect, Path: "/agency/sign-in"}, out)
	}
	out := r.Resolve("example.com", "/sign-in/extra", "")
	require.Equal(t, middleware.ActionContinue, out.Action)
}

func TestResolveSite(t *testing.T) {
	r := newResolver(t)

	require.Equal(t, middleware.Outcome{Action: middleware.ActionRewrite, Path: "/site"}, r.Resolve("example.com", "/site", ""))
	require.Equal(t, middleware.Outcome{Action: middleware.ActionRewrite, Path: "/site"}, r.Resolve("localhost:3000", "/", "q=1"))
	require.Equal(t, middleware.ActionContinue, r.Resolve("localhost:3000", "/site", "").Action)
}

func TestResolveAgencyAndSubaccountPassThrough(t *testing.T) {
	r := newResolver(t)

	out := r.Resolve("example.com", "/agency/a1/billing", "plan=pro")
	require.Equal(t, middleware.Outcome{Action: middleware.ActionRewrite, Path: "/agency/a1/billing?plan=pro"}, out)

	out = r.Resolve("localhost", "/subaccount/s1", "")
	require.Equal(t, middleware.Outcome{Action: middleware.ActionRewrite, Path: "/subaccount/s1"}, out)

	require.Equal(t, middleware.ActionContinue, r.Resolve("example.com", "/api/me", "").Action)
}
