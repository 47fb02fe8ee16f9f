package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/internal/identity"
	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/internal/realtime"
)

func newFeedServer(t *testing.T, hub *realtime.Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/agencies/:agencyId/notifications/ws", func(c *gin.Context) {
		ctx := identity.WithSession(c.Request.Context(), &identity.Session{UserID: "user_1"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, realtime.ServeWs(hub, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, agencyID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/agencies/" + agencyID + "/notifications/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubDeliversNotificationToAgencyOnly(t *testing.T) {
	hub := realtime.NewHub(nil, nil, nil)
	srv := newFeedServer(t, hub)

	a1 := dial(t, srv, "a1")
	a2 := dial(t, srv, "a2")
	require.Eventually(t, func() bool {
		return hub.ClientCount("a1") == 1 && hub.ClientCount("a2") == 1
	}, 2*time.Second, 10*time.Millisecond)

	sub := "s1"
	err := hub.PublishNotification(context.Background(), models.Notification{
		ID: "n1", Notification: "Ann | Updated settings", AgencyID: "a1", SubAccountID: &sub, UserID: "user_1",
	})
	require.NoError(t, err)

	_ = a1.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg realtime.WSMessage
	require.NoError(t, a1.ReadJSON(&msg))
	require.Equal(t, realtime.EventNotification, msg.Event)

	var n models.Notification
	require.NoError(t, json.Unmarshal(msg.Data, &n))
	require.Equal(t, "Ann | Updated settings", n.Notification)

	_ = a2.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = a2.ReadMessage()
	require.Error(t, err)
}

func TestHubUnregistersOnClose(t *testing.T) {
	hub := realtime.NewHub(nil, nil, nil)
	srv := newFeedServer(t, hub)

	conn := dial(t, srv, "a1")
	require.Eventually(t, func() bool { return hub.ClientCount("a1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return hub.ClientCount("a1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

type slowSubscriber struct {
	started   chan struct{}
	release   chan struct{}
	cancelled atomic.Int32
}

func (s *slowSubscriber) SubscribeAgency(string, func(string, []byte)) (func(), error) {
	close(s.started)
	<-s.release
	return func() { s.cancelled.Add(1) }, nil
}

func TestHubSubscribesOutsideLock(t *testing.T) {
	sub := &slowSubscriber{started: make(chan struct{}), release: make(chan struct{})}
	hub := realtime.NewHub(nil, nil, sub)
	c := &realtime.Client{ID: "c1", AgencyID: "a1"}

	registered := make(chan struct{})
	go func() {
		hub.Register(c)
		close(registered)
	}()
	<-sub.started

	counted := make(chan int, 1)
	go func() { counted <- hub.ClientCount("a1") }()
	select {
	case n := <-counted:
		require.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("hub locked while subscribing")
	}

	// The room empties before the subscription is ready.
	hub.Unregister(c)
	close(sub.release)
	<-registered
	require.Equal(t, int32(1), sub.cancelled.Load())
	require.Zero(t, hub.ClientCount("a1"))
}

func TestServeWsRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/:agencyId", realtime.ServeWs(realtime.NewHub(nil, nil, nil), nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/a1", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChannel(t *testing.T) {
	require.Equal(t, "agency:a1", realtime.Channel("a1"))
}
