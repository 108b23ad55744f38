package httpserver

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-IP limiter for the skill endpoint. A
// voice skill sees one request per user utterance, so anything hammering the
// endpoint is not the voice platform.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

type bucket struct {
	remaining   int
	windowStart time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether a request from ip fits in the current window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	b, ok := rl.buckets[ip]
	if !ok {
		rl.evictStale(now)
		rl.buckets[ip] = &bucket{remaining: rl.limit - 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.remaining = rl.limit
		b.windowStart = now
	}

	if b.remaining > 0 {
		b.remaining--
		return true
	}

	return false
}

// evictStale drops buckets whose window has long expired. Called with the
// lock held, only when a new IP shows up, so steady traffic pays nothing.
func (rl *RateLimiter) evictStale(now time.Time) {
	for ip, b := range rl.buckets {
		if now.Sub(b.windowStart) > 2*rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// Middleware applies the limiter in front of a handler.
func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
