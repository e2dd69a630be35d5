package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func apiAgainst(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := NewAPI(&Session{BaseURL: srv.URL, Token: "test-token", UserID: "u-1"})
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}
	return api
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestAPIListDecodesEnvelope(t *testing.T) {
	api := apiAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/notifications/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("limit = %q", got)
		}
		if got := r.URL.Query().Get("unread_only"); got != "true" {
			t.Errorf("unread_only = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("auth header = %q", got)
		}
		writeEnvelope(w, ListResponse{
			Notifications: []Notification{{ID: "n1", IsRead: "false"}},
			UnreadCount:   3,
		})
	})

	resp, err := api.List(context.Background(), 20, true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.Notifications) != 1 || resp.Notifications[0].ID != "n1" {
		t.Fatalf("notifications = %+v", resp.Notifications)
	}
	if resp.UnreadCount != 3 {
		t.Fatalf("unread = %d", resp.UnreadCount)
	}
	if !resp.Notifications[0].Unread() {
		t.Fatal("is_read \"false\" should report unread")
	}
}

func TestAPIUnreadCount(t *testing.T) {
	api := apiAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/notifications/unread-count/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeEnvelope(w, map[string]int64{"unread_count": 9})
	})

	count, err := api.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 9 {
		t.Fatalf("count = %d", count)
	}
}

func TestAPIActionsHitExpectedRoutes(t *testing.T) {
	var gotMethod, gotPath string
	api := apiAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		writeEnvelope(w, map[string]bool{"ok": true})
	})

	ctx := context.Background()
	if err := api.MarkRead(ctx, "n1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/notifications/n1/read/" {
		t.Fatalf("mark read hit %s %s", gotMethod, gotPath)
	}

	if err := api.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/notifications/read-all/" {
		t.Fatalf("mark all hit %s %s", gotMethod, gotPath)
	}

	if err := api.Delete(ctx, "n1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/notifications/n1/delete/" {
		t.Fatalf("delete hit %s %s", gotMethod, gotPath)
	}
}

func TestAPISurfacesNon2xx(t *testing.T) {
	api := apiAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	if err := api.MarkRead(context.Background(), "n1"); err == nil {
		t.Fatal("expected error on 403")
	}
}
