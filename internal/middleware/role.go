package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/response"
)

// ContextUser is the gin context key for the local user loaded by RequireAgencyRole.
const ContextUser = "user"

// UserFinder loads the local user record for an identity user id.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAgencyRole allows only members of the agency named by the :agencyId
// path parameter whose role is one of roles.
func RequireAgencyRole(users UserFinder, logger *zap.Logger, roles ...models.Role) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		session, ok := identity.SessionFromContext(c.Request.Context())
		if !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		user, err := users.FindByID(c.Request.Context(), session.UserID)
		if err != nil {
			logger.Error("load user for role check", zap.String("user_id", session.UserID), zap.Error(err))
			response.Internal(c, "internal error")
			c.Abort()
			return
		}
		if user == nil || user.AgencyIDValue() != c.Param("agencyId") {
			response.Forbidden(c, "not a member of this agency")
			c.Abort()
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAgencyRole.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
