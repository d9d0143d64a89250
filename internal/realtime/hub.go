package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains user_id -> set of connections for the notification feed and
// fans events out. Uses Redis pub/sub for horizontal scaling: local delivery
// plus publish to Redis so other instances reach their own clients.
type Hub struct {
	users    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per user
	mu       sync.RWMutex
	logger   *zap.Logger
	redisPub RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher publishes feed events to Redis for cross-instance delivery.
type RedisPublisher interface {
	PublishUserEvent(userID uuid.UUID, event string, payload []byte) error
	PublishGlobalEvent(event string, payload []byte) error
}

// RedisSubscriber subscribes to feed channels and invokes handler for
// incoming events.
type RedisSubscriber interface {
	SubscribeUser(userID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
	SubscribeGlobal(handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a notification feed hub. The global channel subscription
// (sessions_updated etc.) starts immediately and lives as long as the hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	h := &Hub{
		users:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redisPub: redisPub,
		redisSub: redisSub,
	}
	if redisSub != nil {
		if _, err := redisSub.SubscribeGlobal(func(event string, payload []byte) {
			h.deliverAll(event, json.RawMessage(payload))
		}); err != nil {
			logger.Warn("global feed subscription failed", zap.Error(err))
		}
	}
	return h
}

// Register adds a client connection. Starts the user's Redis subscription on
// the first connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeUser(c.UserID, func(event string, payload []byte) {
				h.deliverUser(c.UserID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.UserID] = cancel
			}
		}
	}
	h.users[c.UserID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("feed client connected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// Unregister removes a client connection. Cancels the Redis subscription when
// the user's last connection closes.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.users[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.users, c.UserID)
			if cancel, ok := h.subs[c.UserID]; ok {
				cancel()
				delete(h.subs, c.UserID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("feed client disconnected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// deliverUser sends to the user's local connections only.
func (h *Hub) deliverUser(userID uuid.UUID, event string, payload interface{}) {
	msg := newMessage(event, payload)

	h.mu.RLock()
	clients := h.users[userID]
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
	h.mu.RUnlock()
}

// deliverAll sends to every local connection.
func (h *Hub) deliverAll(event string, payload interface{}) {
	msg := newMessage(event, payload)

	h.mu.RLock()
	for _, clients := range h.users {
		for _, c := range clients {
			select {
			case c.send <- msg:
			default:
			}
		}
	}
	h.mu.RUnlock()
}

// NotifyUser publishes an event to one user across all instances. The Redis
// subscriber callback performs the local delivery so each instance (this one
// included) delivers exactly once.
func (h *Hub) NotifyUser(userID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redisPub != nil {
		_ = h.redisPub.PublishUserEvent(userID, event, data)
		return
	}
	h.deliverUser(userID, event, json.RawMessage(data))
}

// Broadcast publishes an event to every connected user across all instances.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redisPub != nil {
		_ = h.redisPub.PublishGlobalEvent(event, data)
		return
	}
	h.deliverAll(event, json.RawMessage(data))
}

// ConnectionCount returns the number of live connections for a user.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func newMessage(event string, payload interface{}) WSMessage {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	return WSMessage{Event: event, Data: data}
}
