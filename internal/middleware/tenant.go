package middleware

import (
	"net"
	"strings"

	"github.com/agencyhub/backend/pkg/apperr"
)

// Action is what the edge does with a request after tenant resolution.
type Action int

const (
	// ActionContinue serves the request unmodified.
	ActionContinue Action = iota
	// ActionRewrite serves Outcome.Path internally; the client never sees it.
	ActionRewrite
	// ActionRedirect sends the client to Outcome.Path.
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionRewrite:
		return "rewrite"
	case ActionRedirect:
		return "redirect"
	default:
		return "continue"
	}
}

// Outcome is a single routing decision. Path includes the query string when one is carried over.
type Outcome struct {
	Action Action
	Path   string
}

const (
	signInPath = "/agency/sign-in"
	sitePath   = "/site"
)

// TenantResolver maps a request's host and path to a routing outcome.
// It is stateless: the slug is resolved to a tenant later by the page handlers.
type TenantResolver struct {
	baseDomain string
}

// NewTenantResolver creates a resolver for sub-domains of baseDomain.
func NewTenantResolver(baseDomain string) (*TenantResolver, error) {
	baseDomain = strings.ToLower(strings.TrimSpace(baseDomain))
	if baseDomain == "" {
		return nil, apperr.New(apperr.EConfigurationMissing, "base domain is required for tenant resolution")
	}
	return &TenantResolver{baseDomain: stripPort(baseDomain)}, nil
}

// BaseDomain returns the configured base domain.
func (t *TenantResolver) BaseDomain() string { return t.baseDomain }

// Resolve applies the routing rules in order; the first match wins.
func (t *TenantResolver) Resolve(host, path, rawQuery string) Outcome {
	hostname := strings.ToLower(stripPort(strings.TrimSpace(host)))
	pathWithQuery := path
	if rawQuery != "" {
		pathWithQuery += "?" + rawQuery
	}

	if slug := t.subdomain(hostname); slug != "" {
		return Outcome{Action: ActionRewrite, Path: "/" + slug + pathWithQuery}
	}

	if path == "/sign-in" || path == "/sign-up" {
		return Outcome{Action: ActionRedirect, Path: signInPath}
	}

	if path == "/" || (path == sitePath && hostname == t.baseDomain) {
		return Outcome{Action: ActionRewrite, Path: sitePath}
	}

	if strings.HasPrefix(path, "/agency") || strings.HasPrefix(path, "/subaccount") {
		return Outcome{Action: ActionRewrite, Path: pathWithQuery}
	}

	return Outcome{Action: ActionContinue}
}

// subdomain returns the label in front of the base domain, or "" when hostname is not a strict sub-domain.
func (t *TenantResolver) subdomain(hostname string) string {
	suffix := "." + t.baseDomain
	if !strings.HasSuffix(hostname, suffix) {
		return ""
	}
	return strings.TrimSuffix(hostname, suffix)
}

func stripPort(host string) string {
	if strings.Contains(host, ":") {
		if h, _, err := net.SplitHostPort(host); err == nil {
			return h
		}
	}
	return host
}
