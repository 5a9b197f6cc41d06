package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowEnforcesLimit(t *testing.T) {
	l := New(Config{Limit: 3, Window: time.Minute})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("fourth request should be rejected")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("different client should not be affected")
	}
}

func TestWindowResets(t *testing.T) {
	l := New(Config{Limit: 1, Window: 10 * time.Millisecond})
	defer l.Stop()

	if !l.Allow("c") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("c") {
		t.Fatal("second request in window should be rejected")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("c") {
		t.Fatal("request after window expiry should be allowed")
	}
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	l := New(Config{Limit: 1, Window: time.Minute})
	defer l.Stop()

	handler := l.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request: got %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("rejection should carry Retry-After")
	}
}

func TestEvictStale(t *testing.T) {
	l := New(Config{Limit: 1, Window: time.Millisecond, CleanupInterval: time.Hour})
	defer l.Stop()

	l.Allow("a")
	l.Allow("b")
	if got := l.ActiveClients(); got != 2 {
		t.Fatalf("ActiveClients = %d, want 2", got)
	}

	time.Sleep(5 * time.Millisecond)
	l.evictStale()
	if got := l.ActiveClients(); got != 0 {
		t.Fatalf("ActiveClients after eviction = %d, want 0", got)
	}
}
