package identity

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie is the cookie the provider's frontend SDK stores the session token in.
const SessionCookie = "__session"

// Claims are the session token claims. Subject is the provider user id.
type Claims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionVerifier validates HS256 session tokens.
type SessionVerifier struct {
	secret []byte
}

// NewSessionVerifier creates a verifier for tokens signed with secret.
func NewSessionVerifier(secret string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret)}
}

// Issue signs a session token for userID. Used by local tooling and tests.
func (v *SessionVerifier) Issue(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: "sess_" + uuid.NewString(),
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify parses and validates a token, returning the session it describes.
func (v *SessionVerifier) Verify(token string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidSession
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return &Session{UserID: claims.Subject, SessionID: claims.SessionID, Email: claims.Email}, nil
}

// Authenticate reads the session token from the Authorization header or the session cookie.
func (v *SessionVerifier) Authenticate(r *http.Request) (*Session, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, ErrNoSession
	}
	return v.Verify(token)
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
