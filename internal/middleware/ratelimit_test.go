package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, period time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, period)
	rl.now = clock.Now
	return rl, clock
}

func TestTakeCountsDown(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Minute)

	for want := 2; want >= 0; want-- {
		ok, remaining, _ := rl.Take("203.0.113.7")
		if !ok {
			t.Fatalf("request with %d remaining was rejected", want)
		}
		if remaining != want {
			t.Errorf("remaining = %d, want %d", remaining, want)
		}
	}

	ok, remaining, _ := rl.Take("203.0.113.7")
	if ok || remaining != 0 {
		t.Errorf("4th take = (%v, %d), want (false, 0)", ok, remaining)
	}

	if ok, _, _ := rl.Take("198.51.100.2"); !ok {
		t.Error("other keys have their own quota")
	}
}

func TestTakeWindowResets(t *testing.T) {
	rl, clock := newTestLimiter(1, time.Minute)

	if ok, _, _ := rl.Take("k"); !ok {
		t.Fatal("first take rejected")
	}
	clock.Advance(59 * time.Second)
	if ok, _, _ := rl.Take("k"); ok {
		t.Error("second take inside the window should be rejected")
	}
	clock.Advance(time.Second)
	if ok, _, _ := rl.Take("k"); !ok {
		t.Error("take at the window boundary should start a new window")
	}
}

func TestCleanupDropsEndedWindows(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)

	rl.Take("stale")
	clock.Advance(45 * time.Second)
	rl.Take("fresh")
	clock.Advance(30 * time.Second)

	if removed := rl.Cleanup(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if rl.Len() != 1 {
		t.Errorf("Len = %d, want 1", rl.Len())
	}
	if _, ok := rl.keys["fresh"]; !ok {
		t.Error("fresh key should survive cleanup")
	}
}

func TestLimitMiddleware(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)
	calls := 0
	h := rl.Limit(RealIP, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := range 2 {
		if rec := do(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	clock.Advance(20 * time.Second)
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("3rd request: status = %d, want 429", rec.Code)
	}
	if ra := rec.Header().Get("Retry-After"); ra != "40" {
		t.Errorf("Retry-After = %q, want 40", ra)
	}
	if rem := rec.Header().Get("X-RateLimit-Remaining"); rem != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", rem)
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"no port", nil, "10.0.0.1", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:5555", "203.0.113.7"},
		{"cloudflare", map[string]string{"CF-Connecting-IP": "198.51.100.2", "X-Forwarded-For": "203.0.113.7"}, "10.0.0.1:5555", "198.51.100.2"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = tt.remote
		for k, v := range tt.headers {
			req.Header.Set(k, v)
		}
		if got := RealIP(req); got != tt.want {
			t.Errorf("%s: RealIP = %q, want %q", tt.name, got, tt.want)
		}
	}
}
