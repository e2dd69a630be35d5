package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/parceltrack/logistics-backend/pkg/config"
)

// Frame is the payload published whenever a user's unread count changes.
// The hub relays it verbatim to that user's open websockets.
type Frame struct {
	UserID      string `json:"user_id"`
	UnreadCount int64  `json:"unread_count"`
}

// redisPublisher is the slice of the redis client the publisher needs.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Publisher fans unread-count changes out through redis pub/sub so every
// API instance can relay them to its local websocket connections.
type Publisher struct {
	redis   redisPublisher
	channel string
}

// NewPublisher builds a publisher on the configured pub/sub channel.
func NewPublisher(redis redisPublisher, cfg config.PushConfig) (*Publisher, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("push channel required")
	}
	return &Publisher{redis: redis, channel: cfg.Channel}, nil
}

// PublishUnread broadcasts the new unread count for a user.
func (p *Publisher) PublishUnread(ctx context.Context, userID uuid.UUID, unread int64) error {
	payload, err := json.Marshal(Frame{
		UserID:      userID.String(),
		UnreadCount: unread,
	})
	if err != nil {
		return fmt.Errorf("marshal push frame: %w", err)
	}
	return p.redis.Publish(ctx, p.channel, payload)
}
