package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGatewaySender_Accepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(`{"accepted": true}`))
	}))
	defer srv.Close()

	s := NewGatewaySender(srv.URL)
	ok, detail := s.Send(context.Background(), "a@b.test", "hi", "body")
	if !ok {
		t.Fatalf("expected success, got detail %q", detail)
	}
	if detail != "" {
		t.Errorf("expected empty detail, got %q", detail)
	}
}

func TestGatewaySender_ProviderErrorTextPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accepted": false, "error": "454 unusual sending activity detected"}`))
	}))
	defer srv.Close()

	s := NewGatewaySender(srv.URL)
	ok, detail := s.Send(context.Background(), "a@b.test", "hi", "body")
	if ok {
		t.Fatal("expected failure")
	}
	if detail != "454 unusual sending activity detected" {
		t.Errorf("provider error text must pass through verbatim, got %q", detail)
	}
}

func TestGatewaySender_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewGatewaySender(srv.URL)
	ok, detail := s.Send(context.Background(), "a@b.test", "hi", "body")
	if ok {
		t.Fatal("expected failure")
	}
	if !strings.Contains(detail, "429") || !strings.Contains(detail, "rate limit exceeded") {
		t.Errorf("detail should carry status and body, got %q", detail)
	}
}
