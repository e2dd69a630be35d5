package notify

import "testing"

func TestSocketURLDerivedFromBaseURL(t *testing.T) {
	s := &Session{BaseURL: "https://api.parceltrack.io", Token: "tok en", UserID: "u-1"}

	got, err := s.SocketURL()
	if err != nil {
		t.Fatalf("SocketURL: %v", err)
	}
	want := "wss://api.parceltrack.io/ws/notifications/u-1/?token=tok+en"
	if got != want {
		t.Fatalf("SocketURL = %q, want %q", got, want)
	}
}

func TestSocketURLPlainHTTP(t *testing.T) {
	s := &Session{BaseURL: "http://localhost:8080/", Token: "t", UserID: "u-1"}

	got, err := s.SocketURL()
	if err != nil {
		t.Fatalf("SocketURL: %v", err)
	}
	if want := "ws://localhost:8080/ws/notifications/u-1/?token=t"; got != want {
		t.Fatalf("SocketURL = %q, want %q", got, want)
	}
}

func TestSocketURLExplicitWSOrigin(t *testing.T) {
	s := &Session{BaseURL: "https://api.parceltrack.io", WSBaseURL: "wss://push.parceltrack.io", Token: "t", UserID: "u-1"}

	got, err := s.SocketURL()
	if err != nil {
		t.Fatalf("SocketURL: %v", err)
	}
	if want := "wss://push.parceltrack.io/ws/notifications/u-1/?token=t"; got != want {
		t.Fatalf("SocketURL = %q, want %q", got, want)
	}
}

func TestSocketURLRequiresUserID(t *testing.T) {
	s := &Session{BaseURL: "https://api.parceltrack.io", Token: "t"}
	if _, err := s.SocketURL(); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestSocketURLRequiresToken(t *testing.T) {
	s := &Session{BaseURL: "https://api.parceltrack.io", UserID: "u-1"}
	if _, err := s.SocketURL(); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestAuthenticated(t *testing.T) {
	if (&Session{Token: "t"}).Authenticated() != true {
		t.Fatal("session with token not authenticated")
	}
	if (&Session{}).Authenticated() {
		t.Fatal("token-less session reported authenticated")
	}
}
