package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long a client's bucket is kept after its last request.
const idleTTL = 10 * time.Minute

// RateLimiter is a per-client token bucket keyed by client address.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	onLimit   http.HandlerFunc
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute sustained requests per client with the
// given burst. onLimit writes the response for rejected requests.
func NewRateLimiter(perMinute, burst int, onLimit http.HandlerFunc) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients:   make(map[string]*client),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		lastSweep: time.Now(),
		onLimit:   onLimit,
	}
}

// Allow reports whether key may make a request now and consumes a token.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > idleTTL {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > idleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Handler rate limits by r.RemoteAddr, which TrustedRealIP has already
// resolved to the client address.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if addr, ok := hostAddr(key); ok {
			key = addr.String()
		}

		if !rl.Allow(key) {
			rl.onLimit(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
