package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parceltrack/logistics-backend/pkg/logger"
)

// pushFrame is a message from the push stream. unread_count is optional;
// frames without it still advance the tick.
type pushFrame struct {
	UserID      string `json:"user_id"`
	UnreadCount *int64 `json:"unread_count"`
}

// Listener maintains the websocket to the push stream. Any disconnect or
// dial failure schedules a reconnect after a fixed delay, forever, until
// the context is canceled.
type Listener struct {
	session *Session
	store   *Store
	delay   time.Duration
	clock   Clock
	dialer  *websocket.Dialer
	logg    *logger.Logger
}

// NewListener builds a listener; delay defaults to 3s and the clock to the
// system clock.
func NewListener(session *Session, store *Store, delay time.Duration, clock Clock, logg *logger.Logger) *Listener {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Listener{
		session: session,
		store:   store,
		delay:   delay,
		clock:   clock,
		dialer:  websocket.DefaultDialer,
		logg:    logg,
	}
}

// Run connects and reads frames until the context is canceled. The delay
// between attempts is fixed; there is no backoff and no retry cap. No-op
// when the session carries no token.
func (l *Listener) Run(ctx context.Context) {
	if l.session == nil || !l.session.Authenticated() {
		if l.logg != nil {
			l.logg.Info(ctx, "notify.push_disabled, no token")
		}
		return
	}

	for {
		if err := l.connectAndRead(ctx); err != nil && l.logg != nil {
			l.logg.Warn(ctx, "notify.push_disconnected")
		}
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-l.clock.After(l.delay):
		}
	}
}

func (l *Listener) connectAndRead(ctx context.Context) error {
	socketURL, err := l.session.SocketURL()
	if err != nil {
		return err
	}

	conn, resp, err := l.dialer.DialContext(ctx, socketURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}
	defer conn.Close()

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame pushFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			// Malformed frames are dropped; the stream itself is fine.
			if l.logg != nil {
				l.logg.Warn(ctx, "notify.malformed_frame")
			}
			continue
		}
		l.store.ObserveFrame(frame.UnreadCount)
	}
}
