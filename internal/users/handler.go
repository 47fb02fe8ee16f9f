package users

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/response"
)

// Handler handles user HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// InitUserRequest is the body for POST /api/users/init.
type InitUserRequest struct {
	Role models.Role `json:"role"`
}

// Me handles GET /api/me.
func (h *Handler) Me(c *gin.Context) {
	details, err := h.svc.AuthUserDetails(c.Request.Context())
	if err != nil {
		h.fail(c, "get auth user details", err)
		return
	}
	response.OK(c, details)
}

// Init handles POST /api/users/init.
func (h *Handler) Init(c *gin.Context) {
	var body InitUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	u, err := h.svc.InitUser(c.Request.Context(), body.Role)
	if err != nil {
		h.fail(c, "init user", err)
		return
	}
	response.OK(c, u)
}

// Permissions handles GET /api/users/:userId/permissions.
func (h *Handler) Permissions(c *gin.Context) {
	list, err := h.svc.Permissions(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, "get user permissions", err)
		return
	}
	response.OK(c, list)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if apperr.ErrorCode(err) == apperr.EInternal {
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err)
}
