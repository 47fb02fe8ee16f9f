package pipelines

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/response"
)

// Handler handles pipeline HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a pipelines handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Get handles GET /api/pipelines/:pipelineId.
func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.Details(c.Request.Context(), c.Param("pipelineId"))
	if err != nil {
		h.fail(c, "get pipeline", err)
		return
	}
	response.OK(c, p)
}

// Tickets handles GET /api/pipelines/:pipelineId/tickets.
func (h *Handler) Tickets(c *gin.Context) {
	list, err := h.svc.TicketsWithTags(c.Request.Context(), c.Param("pipelineId"))
	if err != nil {
		h.fail(c, "get pipeline tickets", err)
		return
	}
	response.OK(c, list)
}

// LaneTickets handles GET /api/lanes/:laneId/tickets.
func (h *Handler) LaneTickets(c *gin.Context) {
	list, err := h.svc.LaneTickets(c.Request.Context(), c.Param("laneId"))
	if err != nil {
		h.fail(c, "get lane tickets", err)
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
