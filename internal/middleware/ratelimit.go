package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RealIP returns the client address, trusting CF-Connecting-IP and then the
// first hop of X-Forwarded-For before falling back to RemoteAddr.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts requests per key in fixed windows. Every key shares the
// same limit and window length.
type RateLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu   sync.Mutex
	keys map[string]*window
}

// NewRateLimiter allows limit requests per key in each period.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		period: period,
		now:    time.Now,
		keys:   make(map[string]*window),
	}
}

// Take records one request for key and returns whether it is within the
// limit, how many requests remain and when the window resets.
func (rl *RateLimiter) Take(key string) (ok bool, remaining int, resetAt time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, found := rl.keys[key]
	if !found || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(rl.period)}
		rl.keys[key] = w
	}
	w.count++
	return w.count <= rl.limit, max(rl.limit-w.count, 0), w.resetAt
}

// Cleanup drops keys whose window has ended and returns how many it removed.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, w := range rl.keys {
		if !now.Before(w.resetAt) {
			delete(rl.keys, key)
			removed++
		}
	}
	return removed
}

// Len is the number of keys currently tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.keys)
}

// Limit wraps next so each key from keyFunc is held to the limiter's quota.
// Rejected requests get 429 with Retry-After in whole seconds.
func (rl *RateLimiter) Limit(keyFunc func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, resetAt := rl.Take(keyFunc(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			wait := int((resetAt.Sub(rl.now()) + time.Second - 1) / time.Second)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(max(wait, 1)))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many attempts, try again later"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
