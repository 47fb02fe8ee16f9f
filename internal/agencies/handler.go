package agencies

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/response"
)

// Handler handles agency HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an agencies handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Upsert handles PUT /api/agencies.
func (h *Handler) Upsert(c *gin.Context) {
	var body models.Agency
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	a, err := h.svc.Upsert(c.Request.Context(), &body)
	if err != nil {
		h.fail(c, "upsert agency", err)
		return
	}
	response.OK(c, a)
}

// Update handles PATCH /api/agencies/:agencyId.
func (h *Handler) Update(c *gin.Context) {
	var body Patch
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	a, err := h.svc.UpdateDetails(c.Request.Context(), c.Param("agencyId"), body)
	if err != nil {
		h.fail(c, "update agency", err)
		return
	}
	response.OK(c, a)
}

// Delete handles DELETE /api/agencies/:agencyId.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("agencyId")); err != nil {
		h.fail(c, "delete agency", err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if apperr.ErrorCode(err) == apperr.EInternal {
		h.logger.Error(msg, zap.Error(err))
	}
	response.Error(c, err)
}
