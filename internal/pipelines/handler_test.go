package pipelines_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/internal/pipelines"
	"github.com/agencyhub/backend/pkg/apperr"
)

type memStore struct{}

func (memStore) GetByID(_ context.Context, id string) (*models.Pipeline, error) {
	switch id {
	case "p1":
		return &models.Pipeline{ID: "p1", Name: "Lead Cycle", SubAccountID: "s1"}, nil
	case "p2":
		return &models.Pipeline{ID: "p2", Name: "Other", SubAccountID: "s2"}, nil
	}
	return nil, nil
}

func (memStore) LaneSubAccount(_ context.Context, laneID string) (string, error) {
	if laneID == "l1" {
		return "s1", nil
	}
	return "", nil
}

func (memStore) TicketsByPipeline(context.Context, string) ([]models.TicketDetails, error) {
	return []models.TicketDetails{{Ticket: models.Ticket{ID: "t1", Name: "Call back"}, Tags: []models.Tag{{Name: "hot"}}}}, nil
}

func (memStore) TicketsByLane(context.Context, string) ([]models.TicketDetails, error) {
	return []models.TicketDetails{{Ticket: models.Ticket{ID: "t1"}, Lane: &models.Lane{ID: "l1"}}}, nil
}

type onlyS1 struct{}

func (onlyS1) Authorize(_ context.Context, subAccountID string) error {
	if subAccountID != "s1" {
		return apperr.New(apperr.EForbidden, "no access to this subaccount")
	}
	return nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := pipelines.NewHandler(pipelines.NewService(memStore{}, onlyS1{}), nil)
	r := gin.New()
	r.GET("/api/pipelines/:pipelineId", h.Get)
	r.GET("/api/pipelines/:pipelineId/tickets", h.Tickets)
	r.GET("/api/lanes/:laneId/tickets", h.LaneTickets)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPipelineRoutes(t *testing.T) {
	r := newRouter()

	w := get(r, "/api/pipelines/p1")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Lead Cycle")

	require.Equal(t, http.StatusForbidden, get(r, "/api/pipelines/p2").Code)
	require.Equal(t, http.StatusNotFound, get(r, "/api/pipelines/missing").Code)

	w = get(r, "/api/pipelines/p1/tickets")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []models.TicketDetails `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "hot", body.Data[0].Tags[0].Name)

	require.Equal(t, http.StatusForbidden, get(r, "/api/pipelines/p2/tickets").Code)

	w = get(r, "/api/lanes/l1/tickets")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"lane"`)
	require.Equal(t, http.StatusNotFound, get(r, "/api/lanes/nope/tickets").Code)
}
