package notify

import (
	"context"
	"time"

	"github.com/parceltrack/logistics-backend/pkg/logger"
)

// counterFetcher is the slice of the API the poller needs.
type counterFetcher interface {
	UnreadCount(ctx context.Context) (int64, error)
}

// Poller refreshes the unread counter on a fixed interval as a fallback for
// missed push frames. A failed poll keeps the previous value. A session
// without a token disables polling; there is no anonymous access.
type Poller struct {
	session  *Session
	api      counterFetcher
	store    *Store
	interval time.Duration
	clock    Clock
	logg     *logger.Logger
}

// NewPoller builds a poller; interval defaults to 30s and the clock to the
// system clock.
func NewPoller(session *Session, api counterFetcher, store *Store, interval time.Duration, clock Clock, logg *logger.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Poller{session: session, api: api, store: store, interval: interval, clock: clock, logg: logg}
}

// Run fetches the count immediately, then on every interval, until the
// context is canceled. No-op when the session carries no token.
func (p *Poller) Run(ctx context.Context) {
	if p.session == nil || !p.session.Authenticated() {
		if p.logg != nil {
			p.logg.Info(ctx, "notify.poll_disabled, no token")
		}
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}
		p.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-p.clock.After(p.interval):
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	count, err := p.api.UnreadCount(ctx)
	if err != nil {
		if ctx.Err() == nil && p.logg != nil {
			p.logg.Warn(ctx, "notify.poll_failed, keeping previous count")
		}
		return
	}
	p.store.SetUnread(count)
}
