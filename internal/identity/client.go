package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/models"
)

// Client talks to the identity provider's backend API and verifies session tokens locally.
type Client struct {
	*SessionVerifier
	baseURL   string
	secretKey string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates an identity client.
func NewClient(baseURL, secretKey string, verifier *SessionVerifier, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		SessionVerifier: verifier,
		baseURL:         baseURL,
		secretKey:       secretKey,
		http:            &http.Client{Timeout: timeout},
		logger:          logger,
	}
}

// CurrentUser fetches the user of the session in ctx. Without a session it returns nil, nil.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return nil, nil
	}
	var u User
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(s.UserID), nil, &u); err != nil {
		return nil, fmt.Errorf("get user %s: %w", s.UserID, err)
	}
	return &u, nil
}

type metadataUpdate struct {
	PrivateMetadata map[string]string `json:"private_metadata"`
}

// UpdateRoleClaim stores role in the user's private metadata.
func (c *Client) UpdateRoleClaim(ctx context.Context, userID string, role models.Role) error {
	body := metadataUpdate{PrivateMetadata: map[string]string{"role": string(role)}}
	if err := c.do(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(userID)+"/metadata", body, nil); err != nil {
		return fmt.Errorf("update role claim %s: %w", userID, err)
	}
	c.logger.Debug("identity role claim updated", zap.String("user_id", userID), zap.String("role", string(role)))
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
