package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/parceltrack/logistics-backend/api/controllers"
	"github.com/parceltrack/logistics-backend/internal/deliveries"
	"github.com/parceltrack/logistics-backend/internal/notifications"
	"github.com/parceltrack/logistics-backend/internal/push"
	"github.com/parceltrack/logistics-backend/internal/tickets"
	pkgAuth "github.com/parceltrack/logistics-backend/pkg/auth"
	"github.com/parceltrack/logistics-backend/pkg/config"
	"github.com/parceltrack/logistics-backend/pkg/db/models"
	"github.com/parceltrack/logistics-backend/pkg/enums"
	"github.com/parceltrack/logistics-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubNotifications struct {
	notifications.Service
	listFn     func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn func(ctx context.Context, userID, notificationID uuid.UUID) (*notifications.MutationResult, error)
}

func (s *stubNotifications) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{Items: []notifications.Item{}}, nil
}

func (s *stubNotifications) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*notifications.MutationResult, error) {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, userID, notificationID)
	}
	return &notifications.MutationResult{}, nil
}

type stubDeliveries struct {
	deliveries.Service
	trackFn        func(ctx context.Context, trackingNumber string) (*models.Delivery, error)
	updateStatusFn func(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) error
}

func (s *stubDeliveries) Track(ctx context.Context, trackingNumber string) (*models.Delivery, error) {
	if s.trackFn != nil {
		return s.trackFn(ctx, trackingNumber)
	}
	return &models.Delivery{}, nil
}

func (s *stubDeliveries) UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) error {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, deliveryID, status)
	}
	return nil
}

type stubTickets struct {
	tickets.Service
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "parceltrack", ExpirationMinutes: 60},
	}
}

func testDeps(notif notifications.Service, deliv deliveries.Service) Deps {
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return Deps{
		Cfg:           cfg,
		Logg:          logg,
		Pingers:       map[string]controllers.Pinger{"db": stubPinger{}},
		Hub:           push.NewHub(config.PushConfig{WriteTimeout: time.Second}, nil, nil),
		Notifications: notif,
		Deliveries:    deliv,
		Tickets:       &stubTickets{},
	}
}

func mintToken(t *testing.T, cfg *config.Config, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpoints(t *testing.T) {
	handler := NewRouter(testDeps(&stubNotifications{}, &stubDeliveries{}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("live: unexpected status %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("ready: unexpected status %d", resp.Code)
	}
}

func TestNotificationRoutesRequireAuth(t *testing.T) {
	handler := NewRouter(testDeps(&stubNotifications{}, &stubDeliveries{}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/notifications/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestNotificationListRoute(t *testing.T) {
	userID := uuid.New()
	deps := testDeps(&stubNotifications{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			if params.UserID != userID {
				t.Fatalf("expected caller scope, got %s", params.UserID)
			}
			return &notifications.ListResult{Items: []notifications.Item{}, UnreadCount: 2}, nil
		},
	}, &stubDeliveries{})
	handler := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/?limit=15", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, deps.Cfg, userID, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			UnreadCount int64 `json:"unread_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.UnreadCount != 2 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestNotificationMarkReadRoute(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	called := false
	deps := testDeps(&stubNotifications{
		markReadFn: func(ctx context.Context, uid, nid uuid.UUID) (*notifications.MutationResult, error) {
			called = true
			if uid != userID || nid != notificationID {
				t.Fatalf("unexpected args %s %s", uid, nid)
			}
			return &notifications.MutationResult{UnreadCount: 0, Updated: 1}, nil
		},
	}, &stubDeliveries{})
	handler := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/"+notificationID.String()+"/read/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, deps.Cfg, userID, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called through routing")
	}
}

func TestDeliveryStatusRouteRequiresDriverRole(t *testing.T) {
	deps := testDeps(&stubNotifications{}, &stubDeliveries{})
	handler := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/deliveries/"+uuid.NewString()+"/status/", strings.NewReader(`{"status":"Delivered"}`))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, deps.Cfg, uuid.New(), enums.UserRoleCustomer))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/deliveries/"+uuid.NewString()+"/status/", strings.NewReader(`{"status":"Delivered"}`))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, deps.Cfg, uuid.New(), enums.UserRoleDriver))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for driver, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPublicTrackingRoute(t *testing.T) {
	deps := testDeps(&stubNotifications{}, &stubDeliveries{
		trackFn: func(ctx context.Context, trackingNumber string) (*models.Delivery, error) {
			if trackingNumber != "PT-AB12CD34EF" {
				t.Fatalf("unexpected tracking number %q", trackingNumber)
			}
			return &models.Delivery{TrackingNumber: trackingNumber}, nil
		},
	})
	handler := NewRouter(deps)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/track/PT-AB12CD34EF/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestWebsocketRouteDeliversPushFrames(t *testing.T) {
	userID := uuid.New()
	deps := testDeps(&stubNotifications{}, &stubDeliveries{})
	server := httptest.NewServer(NewRouter(deps))
	defer server.Close()

	token := mintToken(t, deps.Cfg, userID, enums.UserRoleCustomer)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/notifications/" + userID.String() + "/?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return deps.Hub.ConnCount(userID.String()) == 1 })

	deps.Hub.Broadcast(context.Background(), push.Frame{UserID: userID.String(), UnreadCount: 5})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame push.Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if frame.UnreadCount != 5 {
		t.Fatalf("unexpected frame %+v", frame)
	}
}

func TestWebsocketRouteRejectsMismatchedUser(t *testing.T) {
	deps := testDeps(&stubNotifications{}, &stubDeliveries{})
	server := httptest.NewServer(NewRouter(deps))
	defer server.Close()

	token := mintToken(t, deps.Cfg, uuid.New(), enums.UserRoleCustomer)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/notifications/" + uuid.NewString() + "/?token=" + token

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake rejection")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake, got %+v", resp)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
