package notify

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Session carries the identity and endpoints a sync client operates with.
// It is injected rather than discovered so tests can point it anywhere.
type Session struct {
	// BaseURL is the REST origin, e.g. https://api.parceltrack.io
	BaseURL string
	// WSBaseURL is the websocket origin, e.g. wss://api.parceltrack.io.
	// When empty it is derived from BaseURL.
	WSBaseURL string
	Token     string
	UserID    string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Authenticated reports whether the session carries a token. Without one
// the poller and listener refuse to run.
func (s *Session) Authenticated() bool {
	return s.Token != ""
}

func (s *Session) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}

func (s *Session) restURL(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + path
}

// SocketURL builds the push stream URL with the token in the query string.
func (s *Session) SocketURL() (string, error) {
	base := s.WSBaseURL
	if base == "" {
		switch {
		case strings.HasPrefix(s.BaseURL, "https://"):
			base = "wss://" + strings.TrimPrefix(s.BaseURL, "https://")
		case strings.HasPrefix(s.BaseURL, "http://"):
			base = "ws://" + strings.TrimPrefix(s.BaseURL, "http://")
		default:
			return "", fmt.Errorf("cannot derive websocket origin from %q", s.BaseURL)
		}
	}
	if s.UserID == "" {
		return "", fmt.Errorf("session user id required")
	}
	if s.Token == "" {
		return "", fmt.Errorf("session token required")
	}
	return fmt.Sprintf("%s/ws/notifications/%s/?token=%s",
		strings.TrimRight(base, "/"), s.UserID, url.QueryEscape(s.Token)), nil
}
