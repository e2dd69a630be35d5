package notify

import (
	"context"
)

// actionAPI is the slice of the API the dispatcher needs.
type actionAPI interface {
	List(ctx context.Context, limit int, unreadOnly bool) (*ListResponse, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// Outcome reports how an action resolved against the server.
type Outcome int

const (
	// OutcomeConfirmed means the server accepted the action and the store
	// reflects it.
	OutcomeConfirmed Outcome = iota
	// OutcomeRejected means the server refused or was unreachable and the
	// store kept its confirmed state.
	OutcomeRejected
)

// Dispatcher executes user actions against the server and applies the
// result to the shared store. Actions other than Open are
// confirm-then-apply: the store only changes after the server accepts.
type Dispatcher struct {
	api   actionAPI
	store *Store

	// OnChange runs after every successful action, once the store has been
	// updated. Optional.
	OnChange func()
}

// NewDispatcher binds a dispatcher to an API client and store.
func NewDispatcher(api actionAPI, store *Store) *Dispatcher {
	return &Dispatcher{api: api, store: store}
}

// Refresh fetches the notification panel and overwrites the store.
func (d *Dispatcher) Refresh(ctx context.Context, limit int, unreadOnly bool) error {
	resp, err := d.api.List(ctx, limit, unreadOnly)
	if err != nil {
		return err
	}
	d.store.ReplaceAll(resp.Notifications, resp.UnreadCount)
	d.changed()
	return nil
}

// MarkRead confirms with the server, then marks the notification read
// locally and decrements the counter with the zero clamp.
func (d *Dispatcher) MarkRead(ctx context.Context, id string) (Outcome, error) {
	if err := d.api.MarkRead(ctx, id); err != nil {
		return OutcomeRejected, err
	}
	d.store.ApplyMarkRead(id)
	d.changed()
	return OutcomeConfirmed, nil
}

// Open marks the notification read optimistically so the panel updates
// before navigation, then informs the server. A failed confirm keeps the
// optimistic state; the next fetch or push frame reconciles it.
func (d *Dispatcher) Open(ctx context.Context, id string) (Outcome, error) {
	d.store.ApplyMarkRead(id)
	d.changed()
	if err := d.api.MarkRead(ctx, id); err != nil {
		return OutcomeRejected, err
	}
	return OutcomeConfirmed, nil
}

// MarkAllRead confirms with the server, then flips everything read and
// zeroes the counter.
func (d *Dispatcher) MarkAllRead(ctx context.Context) (Outcome, error) {
	if err := d.api.MarkAllRead(ctx); err != nil {
		return OutcomeRejected, err
	}
	d.store.ApplyMarkAllRead()
	d.changed()
	return OutcomeConfirmed, nil
}

// Delete confirms with the server, then removes exactly one notification,
// decrementing the counter when the removed one was unread.
func (d *Dispatcher) Delete(ctx context.Context, id string) (Outcome, error) {
	if err := d.api.Delete(ctx, id); err != nil {
		return OutcomeRejected, err
	}
	d.store.ApplyDelete(id)
	d.changed()
	return OutcomeConfirmed, nil
}

func (d *Dispatcher) changed() {
	if d.OnChange != nil {
		d.OnChange()
	}
}
