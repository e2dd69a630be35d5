package notify

import (
	"context"
	"sync"

	"github.com/parceltrack/logistics-backend/pkg/config"
	"github.com/parceltrack/logistics-backend/pkg/logger"
)

const defaultFetchLimit = 15

// Client bundles the sync pieces: one shared store, the REST dispatcher,
// the interval poller and the push listener, defaulted from configuration.
type Client struct {
	Store      *Store
	Dispatcher *Dispatcher

	poller     *Poller
	listener   *Listener
	fetchLimit int
}

// NewClient wires a sync client from a session and the notify config.
func NewClient(session *Session, cfg config.NotifyConfig, clock Clock, logg *logger.Logger) (*Client, error) {
	api, err := NewAPI(session)
	if err != nil {
		return nil, err
	}

	store := NewStore()
	fetchLimit := cfg.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = defaultFetchLimit
	}
	return &Client{
		Store:      store,
		Dispatcher: NewDispatcher(api, store),
		poller:     NewPoller(session, api, store, cfg.PollInterval, clock, logg),
		listener:   NewListener(session, store, cfg.ReconnectDelay, clock, logg),
		fetchLimit: fetchLimit,
	}, nil
}

// Run drives the poller and the push listener until the context is
// canceled. Both refuse to start without a session token, so a token-less
// client returns immediately.
func (c *Client) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.poller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		c.listener.Run(ctx)
	}()
	wg.Wait()
}

// Refresh loads the notification panel with the configured page size.
func (c *Client) Refresh(ctx context.Context, unreadOnly bool) error {
	return c.Dispatcher.Refresh(ctx, c.fetchLimit, unreadOnly)
}
