package invitations

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/response"
)

// Handler handles invitation HTTP endpoints.
type Handler struct {
	reconciler *Reconciler
	svc        *Service
	logger     *zap.Logger
}

// NewHandler creates an invitations handler.
func NewHandler(reconciler *Reconciler, svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reconciler: reconciler, svc: svc, logger: logger}
}

// InviteRequest is the body for POST /api/agencies/:agencyId/invitations.
type InviteRequest struct {
	Email string      `json:"email" binding:"required"`
	Role  models.Role `json:"role"`
}

// Accept handles POST /api/invitations/accept.
func (h *Handler) Accept(c *gin.Context) {
	res, err := h.reconciler.Reconcile(c.Request.Context())
	if err != nil {
		h.logger.Error("verify and accept invitation", zap.Error(err))
		response.Error(c, err)
		return
	}
	if res.Outcome == OutcomeNoSession {
		response.Unauthorized(c, "authentication required")
		return
	}
	response.OK(c, res)
}

// Invite handles POST /api/agencies/:agencyId/invitations.
func (h *Handler) Invite(c *gin.Context) {
	var body InviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email required")
		return
	}
	inv, err := h.svc.Invite(c.Request.Context(), c.Param("agencyId"), body.Email, body.Role)
	if err != nil {
		if apperr.ErrorCode(err) == apperr.EInternal {
			h.logger.Error("create invitation", zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	response.Created(c, inv)
}

// List handles GET /api/agencies/:agencyId/invitations.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Param("agencyId"))
	if err != nil {
		h.logger.Error("list invitations", zap.Error(err))
		response.Internal(c, "failed to list invitations")
		return
	}
	response.OK(c, list)
}
