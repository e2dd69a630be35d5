package push

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	redis "github.com/redis/go-redis/v9"

	"github.com/parceltrack/logistics-backend/pkg/config"
	"github.com/parceltrack/logistics-backend/pkg/logger"
	"github.com/parceltrack/logistics-backend/pkg/metrics"
)

const hubName = "notifications"

// Hub tracks the websocket connections of this API instance and relays
// unread-count frames to the matching user's sockets. A user may hold
// several connections (multiple tabs); each gets every frame.
type Hub struct {
	mu           sync.Mutex
	conns        map[string]map[*websocket.Conn]struct{}
	writeTimeout time.Duration
	logg         *logger.Logger
	metrics      *metrics.PushMetrics
}

// NewHub builds an empty hub.
func NewHub(cfg config.PushConfig, logg *logger.Logger, pm *metrics.PushMetrics) *Hub {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Hub{
		conns:        map[string]map[*websocket.Conn]struct{}{},
		writeTimeout: timeout,
		logg:         logg,
		metrics:      pm,
	}
}

// Register adds a connection for the user.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		set = map[*websocket.Conn]struct{}{}
		h.conns[userID] = set
	}
	set[conn] = struct{}{}
	h.metrics.ConnOpened(hubName)
}

// Unregister drops a connection; the caller closes the socket.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		return
	}
	if _, present := set[conn]; !present {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
	h.metrics.ConnClosed(hubName)
}

// ConnCount reports the live connections for a user.
func (h *Hub) ConnCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}

// Broadcast writes the frame to every local connection of the frame's user.
// Connections that fail the write are dropped.
func (h *Hub) Broadcast(ctx context.Context, frame Frame) {
	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.conns[frame.UserID]))
	for conn := range h.conns[frame.UserID] {
		targets = append(targets, conn)
	}
	h.mu.Unlock()

	for _, conn := range targets {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			h.metrics.IncPublishError(hubName)
			if h.logg != nil {
				logCtx := h.logg.WithUserID(ctx, frame.UserID)
				h.logg.Warn(logCtx, "push.write_failed, dropping connection")
			}
			h.Unregister(frame.UserID, conn)
			_ = conn.Close()
			continue
		}
		h.metrics.IncFrame(hubName)
	}
}

// Run relays redis pub/sub messages to local connections until the context
// is canceled or the channel closes. Malformed frames are logged and skipped.
func (h *Hub) Run(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var frame Frame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				h.metrics.IncPublishError(hubName)
				if h.logg != nil {
					h.logg.Error(ctx, "push.malformed_frame", err)
				}
				continue
			}
			h.Broadcast(ctx, frame)
		}
	}
}
