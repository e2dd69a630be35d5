package notify

import "sync"

// Store is the single shared state of the sync client: the notification
// list, the unread badge counter, and a tick that increments on every push
// frame. All mutations clamp the counter at zero.
type Store struct {
	mu     sync.Mutex
	items  []Notification
	unread int64
	tick   uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the list plus the current counter.
func (s *Store) Snapshot() ([]Notification, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Notification, len(s.items))
	copy(items, s.items)
	return items, s.unread
}

// Unread returns the badge counter.
func (s *Store) Unread() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Tick returns how many push frames have been observed.
func (s *Store) Tick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// ReplaceAll overwrites the list and the counter with fetched state.
func (s *Store) ReplaceAll(items []Notification, unread int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]Notification(nil), items...)
	s.unread = clamp(unread)
}

// SetUnread overwrites the counter; fetched and pushed values always win
// over locally derived ones.
func (s *Store) SetUnread(unread int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread = clamp(unread)
}

// ObserveFrame records one push frame: the tick always advances, and the
// counter is overwritten only when the frame carried one.
func (s *Store) ObserveFrame(unread *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	if unread != nil {
		s.unread = clamp(*unread)
	}
}

// ApplyMarkRead flips one notification to read and decrements the counter
// if it was unread. Unknown ids only touch the counter via the clamp.
func (s *Store) ApplyMarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if s.items[i].Unread() {
			s.items[i].IsRead = "true"
			s.unread = clamp(s.unread - 1)
		}
		return
	}
}

// ApplyMarkAllRead flips every notification to read and zeroes the counter.
func (s *Store) ApplyMarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].IsRead = "true"
	}
	s.unread = 0
}

// ApplyDelete removes exactly one notification and decrements the counter
// if the removed one was unread.
func (s *Store) ApplyDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if s.items[i].Unread() {
			s.unread = clamp(s.unread - 1)
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		return
	}
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
