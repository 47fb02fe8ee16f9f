package notifications

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
	"github.com/agencyhub/backend/pkg/response"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Lister reads an agency's notifications.
type Lister interface {
	ListByAgency(ctx context.Context, agencyID string, limit int) ([]models.NotificationWithUser, error)
}

// Handler handles notification HTTP endpoints.
type Handler struct {
	recorder *Recorder
	list     Lister
	logger   *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(recorder *Recorder, list Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{recorder: recorder, list: list, logger: logger}
}

// Create handles POST /api/notifications.
func (h *Handler) Create(c *gin.Context) {
	var body Entry
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	n, err := h.recorder.Record(c.Request.Context(), body)
	if err != nil {
		if apperr.ErrorCode(err) == apperr.EInternal {
			h.logger.Error("save activity log", zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	if n == nil {
		response.NoContent(c)
		return
	}
	response.Created(c, n)
}

// ListByAgency handles GET /api/agencies/:agencyId/notifications.
func (h *Handler) ListByAgency(c *gin.Context) {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	list, err := h.list.ListByAgency(c.Request.Context(), c.Param("agencyId"), limit)
	if err != nil {
		h.logger.Error("list notifications", zap.String("agency_id", c.Param("agencyId")), zap.Error(err))
		response.Internal(c, "failed to list notifications")
		return
	}
	response.OK(c, list)
}
