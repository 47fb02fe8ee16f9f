// Package pages serves the non-API entry points: the agency and sub-account
// landing decisions, the marketing site descriptor and tenant domain pages.
package pages

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/funnels"
	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/invitations"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/response"
)

// SignInPath is where visitors without a session are sent.
const SignInPath = "/agency/sign-in"

// stateSeparator splits an OAuth state value into path and agency id.
const stateSeparator = "___"

// Reconciler resolves the signed-in user's agency, accepting invitations.
type Reconciler interface {
	Reconcile(ctx context.Context) (invitations.Result, error)
}

// DetailsLoader loads the signed-in user's record with permissions.
type DetailsLoader interface {
	AuthUserDetails(ctx context.Context) (*models.UserDetails, error)
}

// SiteFinder resolves tenant slugs to published funnels.
type SiteFinder interface {
	Published(ctx context.Context, slug string) (*models.FunnelWithPages, error)
}

// Handler serves page entry points.
type Handler struct {
	reconciler Reconciler
	directory  identity.Directory
	users      DetailsLoader
	sites      SiteFinder
	logger     *zap.Logger
}

// NewHandler creates a pages handler.
func NewHandler(reconciler Reconciler, directory identity.Directory, users DetailsLoader, sites SiteFinder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reconciler: reconciler, directory: directory, users: users, sites: sites, logger: logger}
}

// AgencyLanding handles GET /agency. A user who belongs to an agency is
// redirected into it; anyone else gets the prefill for creating one.
func (h *Handler) AgencyLanding(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := h.reconciler.Reconcile(ctx)
	if err != nil {
		h.fail(c, "reconcile invitation", err)
		return
	}
	if res.Outcome == invitations.OutcomeNoSession {
		c.Redirect(http.StatusTemporaryRedirect, SignInPath)
		return
	}

	if res.AgencyID != "" {
		var role models.Role
		if res.User != nil {
			role = res.User.Role
		}
		target, err := landingTarget(res.AgencyID, role, c.Query("plan"), c.Query("state"), c.Query("code"))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, target)
		return
	}

	current, err := h.directory.CurrentUser(ctx)
	if err != nil {
		h.fail(c, "load current user", err)
		return
	}
	email := ""
	if current != nil {
		email = current.PrimaryEmail()
	}
	response.OK(c, gin.H{"company_email": email})
}

// landingTarget picks where a member of agencyID lands.
func landingTarget(agencyID string, role models.Role, plan, state, code string) (string, error) {
	switch {
	case role.IsSubAccountRole():
		return "/subaccount", nil
	case role.IsAgencyRole():
		if plan != "" {
			return "/agency/" + agencyID + "/billing?plan=" + url.QueryEscape(plan), nil
		}
		if state != "" {
			parts := strings.Split(state, stateSeparator)
			if len(parts) < 2 || parts[1] == "" {
				return "", apperr.New(apperr.EInvalid, "Authorization failed: missing agency id in state parameter")
			}
			return "/agency/" + parts[1] + "/" + parts[0] + "?code=" + url.QueryEscape(code), nil
		}
		return "/agency/" + agencyID, nil
	}
	return "", apperr.New(apperr.EForbidden, "Access denied: you do not have permission to view this page")
}

// SubAccountLanding handles GET /subaccount by redirecting to the first
// sub-account the user has been granted.
func (h *Handler) SubAccountLanding(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.reconciler.Reconcile(ctx); err != nil {
		h.fail(c, "reconcile invitation", err)
		return
	}
	details, err := h.users.AuthUserDetails(ctx)
	if err != nil {
		h.fail(c, "load user", err)
		return
	}
	if details == nil {
		response.Forbidden(c, "no sub-account access")
		return
	}
	for _, p := range details.Permissions {
		if p.Access {
			c.Redirect(http.StatusTemporaryRedirect, "/subaccount/"+p.SubAccountID)
			return
		}
	}
	response.Forbidden(c, "no sub-account access")
}

// Site handles GET /site.
func (h *Handler) Site(c *gin.Context) {
	response.OK(c, gin.H{
		"name":     "site",
		"sign_in":  SignInPath,
		"sign_up":  "/agency/sign-up",
		"agency":   "/agency",
		"features": []string{"agencies", "subaccounts", "funnels", "pipelines", "media"},
	})
}

// DomainPage is the payload of a published tenant page.
type DomainPage struct {
	Funnel models.Funnel     `json:"funnel"`
	Page   models.FunnelPage `json:"page"`
}

// Domain serves /{slug} and /{slug}/{path...}: the page of the funnel
// published on sub-domain slug.
func (h *Handler) Domain(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		response.NotFound(c, "not found")
		return
	}
	slug, rest := splitSlug(c.Request.URL.Path)
	f, err := h.sites.Published(c.Request.Context(), slug)
	if err != nil {
		h.fail(c, "load site", err)
		return
	}
	page := funnels.Page(f, rest)
	if page == nil {
		response.NotFound(c, "page not found")
		return
	}
	response.OK(c, DomainPage{Funnel: f.Funnel, Page: *page})
}

func splitSlug(p string) (slug, rest string) {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	switch apperr.ErrorCode(err) {
	case apperr.EInternal, apperr.EReconciliationFailure:
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err)
}
