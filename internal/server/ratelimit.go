package server

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-caller request rate limit on the ingest
// endpoint, token bucket per remote address, the way the teacher's gateway
// throttles per-caller traffic on its own external surface. This is ambient
// protection on the HTTP boundary, not a spec-mandated pipeline behavior.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      int
}

// NewRateLimiter builds a RateLimiter allowing rpm requests per minute per
// caller, with a burst equal to rpm.
func NewRateLimiter(rpm int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rpm:      rpm,
	}
}

// Allow reports whether a request from caller should proceed.
func (rl *RateLimiter) Allow(caller string) bool {
	rl.mu.Lock()
	limiter, ok := rl.limiters[caller]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(rl.rpm)/60.0), rl.rpm)
		rl.limiters[caller] = limiter
	}
	rl.mu.Unlock()
	return limiter.Allow()
}

// Middleware rejects requests over the per-caller rate with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"detail": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
