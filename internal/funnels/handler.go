package funnels

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/response"
)

// Handler handles funnel HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a funnels handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /api/subaccounts/:subaccountId/funnels.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Param("subaccountId"))
	if err != nil {
		if apperr.ErrorCode(err) == apperr.EInternal {
			h.logger.Error("list funnels", zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
