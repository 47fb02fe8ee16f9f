package subaccounts

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/response"
)

// Handler handles sub-account HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a sub-accounts handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Upsert handles PUT /api/subaccounts.
func (h *Handler) Upsert(c *gin.Context) {
	var body models.SubAccount
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	sub, err := h.svc.Upsert(c.Request.Context(), &body)
	if err != nil {
		if apperr.ErrorCode(err) == apperr.EInternal {
			h.logger.Error("upsert subaccount", zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	response.OK(c, sub)
}
