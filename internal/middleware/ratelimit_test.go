package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/middleware"
	"github.com/agencyhub/backend/internal/models"
)

func TestRateLimiterDisabled(t *testing.T) {
	require.Nil(t, middleware.NewRateLimiter(0))
}

func TestRateLimiterThrottlesPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// 10 rpm gives a burst of 1
	limiter := middleware.NewRateLimiter(10)
	r := gin.New()
	r.Use(limiter.Handler())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, do("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	require.Equal(t, http.StatusOK, do("10.0.0.2"))
}

type fakeUsers map[string]*models.User

func (f fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if id == "boom" {
		return nil, errors.New("db down")
	}
	return f[id], nil
}

func TestRequireAgencyRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	agency := "a1"
	users := fakeUsers{
		"owner": {ID: "owner", Role: models.RoleAgencyOwner, AgencyID: &agency},
		"guest": {ID: "guest", Role: models.RoleSubAccountGuest, AgencyID: &agency},
	}
	r := gin.New()
	r.DELETE("/agencies/:agencyId",
		middleware.RequireAgencyRole(users, nil, models.RoleAgencyOwner, models.RoleAgencyAdmin),
		func(c *gin.Context) {
			c.String(http.StatusOK, middleware.CurrentUser(c).ID)
		})

	do := func(userID, agencyID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/agencies/"+agencyID, nil)
		if userID != "" {
			req = req.WithContext(identity.WithSession(req.Context(), &identity.Session{UserID: userID}))
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do("owner", "a1")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "owner", w.Body.String())

	require.Equal(t, http.StatusForbidden, do("owner", "a2").Code)
	require.Equal(t, http.StatusForbidden, do("guest", "a1").Code)
	require.Equal(t, http.StatusForbidden, do("stranger", "a1").Code)
	require.Equal(t, http.StatusUnauthorized, do("", "a1").Code)
	require.Equal(t, http.StatusInternalServerError, do("boom", "a1").Code)
}
