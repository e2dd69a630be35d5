package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type pushServer struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ps := &pushServer{conns: make(chan *websocket.Conn, 8)}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		ps.conns <- conn
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pushServer) session() *Session {
	return &Session{BaseURL: ps.srv.URL, Token: "t", UserID: "u-1"}
}

func (ps *pushServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ps.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("listener never connected")
		return nil
	}
}

func waitForTick(t *testing.T, store *Store, want uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for store.Tick() < want {
		if time.Now().After(deadline) {
			t.Fatalf("tick = %d, want %d", store.Tick(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestListenerAppliesFrames(t *testing.T) {
	ps := newPushServer(t)
	store := NewStore()
	store.SetUnread(4)
	l := NewListener(ps.session(), store, 3*time.Second, newFakeClock(), clientTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	conn := ps.accept(t)
	defer conn.Close()

	// A frame with a count overwrites the counter.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"user_id":"u-1","unread_count":7}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForTick(t, store, 1)
	if store.Unread() != 7 {
		t.Fatalf("unread = %d, want 7", store.Unread())
	}

	// A frame without one still advances the tick but keeps the counter.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"user_id":"u-1"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForTick(t, store, 2)
	if store.Unread() != 7 {
		t.Fatalf("bare frame changed counter to %d", store.Unread())
	}
}

func TestListenerSkipsMalformedFrames(t *testing.T) {
	ps := newPushServer(t)
	store := NewStore()
	l := NewListener(ps.session(), store, 3*time.Second, newFakeClock(), clientTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	conn := ps.accept(t)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{invalid`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The connection survives; the next valid frame lands.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"user_id":"u-1","unread_count":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForTick(t, store, 1)
	if store.Unread() != 1 {
		t.Fatalf("unread = %d, want 1", store.Unread())
	}
}

func TestListenerReconnectsAfterFixedDelay(t *testing.T) {
	ps := newPushServer(t)
	store := NewStore()
	clock := newFakeClock()
	l := NewListener(ps.session(), store, 3*time.Second, clock, clientTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	first := ps.accept(t)
	first.Close()

	// The reconnect wait is always the configured fixed delay.
	if d := clock.fire(t); d != 3*time.Second {
		t.Fatalf("reconnect delay = %v, want 3s", d)
	}

	second := ps.accept(t)
	defer second.Close()
	if err := second.WriteMessage(websocket.TextMessage, []byte(`{"user_id":"u-1","unread_count":2}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForTick(t, store, 1)
	if store.Unread() != 2 {
		t.Fatalf("unread = %d, want 2", store.Unread())
	}
}

func TestListenerCancelStopsReconnectLoop(t *testing.T) {
	ps := newPushServer(t)
	store := NewStore()
	clock := newFakeClock()
	l := NewListener(ps.session(), store, 3*time.Second, clock, clientTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	conn := ps.accept(t)
	conn.Close()
	clock.next(t) // loop is parked on the reconnect timer

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop after cancel")
	}

	select {
	case <-ps.conns:
		t.Fatal("listener reconnected after cancel")
	default:
	}
}

func TestListenerCancelClosesActiveConnection(t *testing.T) {
	ps := newPushServer(t)
	store := NewStore()
	l := NewListener(ps.session(), store, 3*time.Second, newFakeClock(), clientTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	conn := ps.accept(t)
	defer conn.Close()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop while connected")
	}
}

func TestListenerDisabledWithoutToken(t *testing.T) {
	ps := newPushServer(t)
	store := NewStore()
	clock := newFakeClock()
	session := ps.session()
	session.Token = ""
	l := NewListener(session, store, 3*time.Second, clock, clientTestLogger())

	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("token-less listener kept running")
	}
	select {
	case <-ps.conns:
		t.Fatal("token-less listener dialed")
	default:
	}
	select {
	case <-clock.waits:
		t.Fatal("token-less listener scheduled a reconnect")
	default:
	}
}
