package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSend(t *testing.T) {
	var got Event
	var auth, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	err := c.Send(context.Background(), Event{SessionID: "s1", Dialect: "indo", Slides: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("expected %q, got %q", "Bearer secret", auth)
	}
	if contentType != "application/json" {
		t.Errorf("expected %q, got %q", "application/json", contentType)
	}
	if got.Event != EventRendered || got.SessionID != "s1" || got.Slides != 42 {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestSend_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("expected no Authorization header, got %q", h)
		}
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "", 0).Send(context.Background(), Event{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", time.Second).Send(context.Background(), Event{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "down for maintenance") {
		t.Errorf("expected status and body in error, got %v", err)
	}
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := NewClient(srv.URL, "", 50*time.Millisecond).Send(context.Background(), Event{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
