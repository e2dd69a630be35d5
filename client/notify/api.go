package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Notification is the client-side view of one notification. is_read arrives
// as the strings "true"/"false" on the wire.
type Notification struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Message           string  `json:"message"`
	NotificationType  string  `json:"notification_type"`
	IsRead            string  `json:"is_read"`
	ActionURL         *string `json:"action_url,omitempty"`
	RelatedDeliveryID *string `json:"related_delivery_id,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// Unread reports whether the notification still counts toward the badge.
func (n Notification) Unread() bool {
	return n.IsRead != "true"
}

// ListResponse is the payload of the list endpoint.
type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
}

// API is the REST client for the notification endpoints.
type API struct {
	session *Session
}

// NewAPI binds an API client to a session.
func NewAPI(session *Session) (*API, error) {
	if session == nil {
		return nil, fmt.Errorf("session required")
	}
	if session.BaseURL == "" {
		return nil, fmt.Errorf("session base url required")
	}
	return &API{session: session}, nil
}

// List fetches the newest notifications plus the authoritative unread count.
func (a *API) List(ctx context.Context, limit int, unreadOnly bool) (*ListResponse, error) {
	path := "/api/notifications/?limit=" + strconv.Itoa(limit)
	if unreadOnly {
		path += "&unread_only=true"
	}
	var out ListResponse
	if err := a.do(ctx, http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnreadCount fetches only the badge counter.
func (a *API) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		UnreadCount int64 `json:"unread_count"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/notifications/unread-count/", &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// Get fetches one notification.
func (a *API) Get(ctx context.Context, id string) (*Notification, error) {
	var out Notification
	if err := a.do(ctx, http.MethodGet, "/api/notifications/"+id+"/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead marks one notification read on the server.
func (a *API) MarkRead(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodPost, "/api/notifications/"+id+"/read/", nil)
}

// MarkAllRead zeroes the unread counter on the server.
func (a *API) MarkAllRead(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/notifications/read-all/", nil)
}

// Delete removes one notification on the server.
func (a *API) Delete(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/notifications/"+id+"/delete/", nil)
}

func (a *API) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.session.restURL(path), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.session.Token)
	}

	resp, err := a.session.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", path, err)
	}
	return nil
}
