package funnels_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/funnels"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/apperr"
)

func strPtr(s string) *string { return &s }

type memStore struct {
	bySub    map[string][]models.FunnelWithPages
	byDomain map[string]*models.FunnelWithPages
}

func (m memStore) ListBySubAccount(_ context.Context, subID string) ([]models.FunnelWithPages, error) {
	if l, ok := m.bySub[subID]; ok {
		return l, nil
	}
	return []models.FunnelWithPages{}, nil
}

func (m memStore) GetBySubDomain(_ context.Context, name string) (*models.FunnelWithPages, error) {
	return m.byDomain[name], nil
}

type onlyS1 struct{}

func (onlyS1) Authorize(_ context.Context, subAccountID string) error {
	if subAccountID != "s1" {
		return apperr.New(apperr.EForbidden, "no access to this subaccount")
	}
	return nil
}

func fixture() memStore {
	live := &models.FunnelWithPages{
		Funnel: models.Funnel{ID: "f1", Name: "Live", Published: true, SubDomainName: strPtr("acme"), SubAccountID: "s1"},
		Pages: []models.FunnelPage{
			{ID: "p1", Name: "Home", PathName: "", Order: 0, FunnelID: "f1"},
			{ID: "p2", Name: "Thanks", PathName: "thank-you", Order: 1, FunnelID: "f1"},
		},
	}
	draft := &models.FunnelWithPages{
		Funnel: models.Funnel{ID: "f2", Name: "Draft", SubDomainName: strPtr("draft"), SubAccountID: "s1"},
	}
	return memStore{
		bySub:    map[string][]models.FunnelWithPages{"s1": {*live, *draft}},
		byDomain: map[string]*models.FunnelWithPages{"acme": live, "draft": draft},
	}
}

func TestPublished(t *testing.T) {
	svc := funnels.NewService(fixture(), onlyS1{})
	ctx := context.Background()

	f, err := svc.Published(ctx, "ACME")
	require.NoError(t, err)
	require.Equal(t, "f1", f.ID)

	_, err = svc.Published(ctx, "draft")
	require.True(t, apperr.Is(err, apperr.ENotFound))

	_, err = svc.Published(ctx, "nobody")
	require.True(t, apperr.Is(err, apperr.ENotFound))
}

func TestPage(t *testing.T) {
	f := fixture().byDomain["acme"]
	require.Equal(t, "p1", funnels.Page(f, "").ID)
	require.Equal(t, "p2", funnels.Page(f, "/thank-you/").ID)
	require.Nil(t, funnels.Page(f, "missing"))
	require.Nil(t, funnels.Page(&models.FunnelWithPages{}, ""))
}

func TestListRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := funnels.NewHandler(funnels.NewService(fixture(), onlyS1{}), nil)
	r := gin.New()
	r.GET("/api/subaccounts/:subaccountId/funnels", h.List)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subaccounts/s1/funnels", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"thank-you"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subaccounts/s2/funnels", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
}
