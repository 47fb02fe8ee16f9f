package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/pkg/apperr"
)

// DefaultPublicRoutes are reachable without a session. Patterns are anchored regular expressions.
var DefaultPublicRoutes = []string{
	`/agency/sign-in(.*)`,
	`/agency/sign-up(.*)`,
	`/site`,
	`/api/uploadthing`,
}

// Gate decides per request whether a session is required and enforces it.
type Gate struct {
	public []*regexp.Regexp
	auth   identity.Authenticator
	logger *zap.Logger
}

// NewGate compiles the public route patterns. A pattern that does not compile is a configuration error.
func NewGate(auth identity.Authenticator, publicRoutes []string, logger *zap.Logger) (*Gate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gate{auth: auth, logger: logger}
	for _, p := range publicRoutes {
		re, err := regexp.Compile("^" + p + "$")
		if err != nil {
			return nil, &apperr.Error{
				Code: apperr.EConfigurationMissing,
				Op:   "middleware.NewGate",
				Msg:  fmt.Sprintf("compile public route %q", p),
				Err:  err,
			}
		}
		g.public = append(g.public, re)
	}
	return g, nil
}

// IsPublic reports whether path matches a public route.
func (g *Gate) IsPublic(path string) bool {
	for _, re := range g.public {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Check verifies the request's session. A valid session is returned on any path;
// a protected path without one yields an unauthenticated error.
func (g *Gate) Check(r *http.Request) (*identity.Session, error) {
	s, err := g.auth.Authenticate(r)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, identity.ErrNoSession) && !errors.Is(err, identity.ErrInvalidSession) {
		g.logger.Warn("session verification failed", zap.Error(err))
	}
	if g.IsPublic(r.URL.Path) {
		return nil, nil
	}
	return nil, &apperr.Error{Code: apperr.EUnauthenticated, Op: "middleware.Gate", Msg: "authentication required", Err: err}
}

// Reject answers an unauthenticated request: API callers get 401, page requests are sent to sign-in.
func (g *Gate) Reject(w http.ResponseWriter, r *http.Request) {
	g.logger.Debug("unauthenticated request", zap.String("path", r.URL.Path))
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	target := signInPath + "?redirect_url=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
