// Package identity is the boundary to the third-party identity provider:
// session-token verification plus the provider's backend user API.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/agencyhub/backend/internal/models"
)

var (
	// ErrNoSession is returned by Authenticate when the request carries no session token.
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession is returned by Authenticate when the token is malformed, expired or forged.
	ErrInvalidSession = errors.New("invalid session")
)

// Session is a verified session attached to a request context.
type Session struct {
	UserID    string
	SessionID string
	Email     string // optional; present when the token template includes it
}

// EmailAddress is one of a provider user's addresses.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// User is the provider's view of the signed-in user.
type User struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
}

// PrimaryEmail returns the first email address, or "" when the user has none.
func (u *User) PrimaryEmail() string {
	if u == nil || len(u.EmailAddresses) == 0 {
		return ""
	}
	return strings.TrimSpace(u.EmailAddresses[0].EmailAddress)
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Authenticator verifies the session carried by a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*Session, error)
}

// Directory reads the signed-in user and writes their role claim.
type Directory interface {
	// CurrentUser returns the user for the session in ctx, or nil, nil when there is none.
	CurrentUser(ctx context.Context) (*User, error)
	UpdateRoleClaim(ctx context.Context, userID string, role models.Role) error
}

// Gateway is the full identity provider surface used by the service.
type Gateway interface {
	Authenticator
	Directory
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached by the access gate, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
