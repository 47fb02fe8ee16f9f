package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/agencyhub/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60

	// EventNotification carries a models.Notification.
	EventNotification = "notification"
)

// Hub maintains agency_id -> set of connections and broadcasts messages.
// With Redis configured, events are published to Redis and every instance, this one
// included, broadcasts them to its local clients from the subscription.
type Hub struct {
	agencies map[string]map[string]*Client
	subs     map[string]*subscription
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// subscription is an agency room's Redis subscription. cancel is nil while it is being set up.
type subscription struct {
	cancel func()
}

// RedisPublisher publishes agency events for cross-instance broadcast.
type RedisPublisher interface {
	PublishAgencyEvent(ctx context.Context, agencyID, event string, payload []byte) error
}

// RedisSubscriber subscribes to agency channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeAgency(agencyID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a hub. redisPub and redisSub may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		agencies: make(map[string]map[string]*Client),
		subs:     make(map[string]*subscription),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to its agency room, subscribing to Redis for the first one.
// The subscription is made without holding the hub lock.
func (h *Hub) Register(c *Client) {
	var sub *subscription
	h.mu.Lock()
	if h.agencies[c.AgencyID] == nil {
		h.agencies[c.AgencyID] = make(map[string]*Client)
		if h.redisSub != nil {
			sub = &subscription{}
			h.subs[c.AgencyID] = sub
		}
	}
	h.agencies[c.AgencyID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined agency feed", zap.String("client_id", c.ID), zap.String("agency_id", c.AgencyID))

	if sub != nil {
		h.subscribe(c.AgencyID, sub)
	}
}

func (h *Hub) subscribe(agencyID string, sub *subscription) {
	cancel, err := h.redisSub.SubscribeAgency(agencyID, func(event string, payload []byte) {
		h.Broadcast(agencyID, event, json.RawMessage(payload))
	})
	if err != nil {
		h.logger.Warn("subscribe agency feed", zap.String("agency_id", agencyID), zap.Error(err))
		return
	}
	h.mu.Lock()
	current := h.subs[agencyID] == sub
	if current {
		sub.cancel = cancel
	}
	h.mu.Unlock()
	// The room emptied while subscribing.
	if !current {
		cancel()
	}
}

// Unregister removes a client, cancelling the Redis subscription when the room empties.
func (h *Hub) Unregister(c *Client) {
	var cancel func()
	h.mu.Lock()
	if m, ok := h.agencies[c.AgencyID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.agencies, c.AgencyID)
			if sub, ok := h.subs[c.AgencyID]; ok {
				cancel = sub.cancel
				delete(h.subs, c.AgencyID)
			}
		}
	}
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	h.logger.Debug("client left agency feed", zap.String("client_id", c.ID), zap.String("agency_id", c.AgencyID))
}

// Broadcast sends a message to this instance's clients of an agency.
func (h *Hub) Broadcast(agencyID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("marshal feed event", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.agencies[agencyID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to the agency's clients on every instance.
func (h *Hub) Publish(ctx context.Context, agencyID, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if h.redis != nil {
		return h.redis.PublishAgencyEvent(ctx, agencyID, event, data)
	}
	h.Broadcast(agencyID, event, json.RawMessage(data))
	return nil
}

// PublishNotification pushes a committed notification to the agency feed.
func (h *Hub) PublishNotification(ctx context.Context, n models.Notification) error {
	return h.Publish(ctx, n.AgencyID, EventNotification, n)
}

// ClientCount returns the number of local clients watching an agency.
func (h *Hub) ClientCount(agencyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.agencies[agencyID])
}
