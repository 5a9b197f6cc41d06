// Package ratelimit implements a fixed-window per-client request
// limiter. It guards the credential endpoints against brute forcing.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Limiter tracks request counts per client within a rolling window.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window

	limit           int
	windowLength    time.Duration
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

type window struct {
	start time.Time
	count int
}

// Config holds limiter configuration
type Config struct {
	// Limit is the number of requests allowed per window.
	Limit int
	// Window is the length of the counting window.
	Window time.Duration
	// CleanupInterval controls how often stale clients are evicted.
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Limit:           30,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// New creates a limiter and starts its background cleanup.
func New(config Config) *Limiter {
	if config.Limit <= 0 {
		config.Limit = DefaultConfig().Limit
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig().Window
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Limiter{
		clients:         make(map[string]*window),
		limit:           config.Limit,
		windowLength:    config.Window,
		cleanupInterval: config.CleanupInterval,
		stop:            make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a request from client should proceed.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.clients[client]
	if !ok || now.Sub(w.start) > l.windowLength {
		l.clients[client] = &window{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= l.limit
}

// ActiveClients returns the number of currently tracked clients.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictStale()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) evictStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-2 * l.windowLength)
	for client, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, client)
		}
	}
}

// Middleware rejects over-limit requests. The client key is taken from
// r.RemoteAddr, which upstream middleware should have resolved to the
// real client IP. onLimit writes the rejection response; when nil a
// plain 429 is sent.
func (l *Limiter) Middleware(onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(r.RemoteAddr) {
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				w.Header().Set("Retry-After", "60")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
