package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/HastyAy/RoomManagementSystem/shared/envelope"
)

// clientLimiters keeps a token bucket per remote address.
type clientLimiters struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

func newClientLimiters(r rate.Limit, b int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}
}

func (c *clientLimiters) get(addr string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[addr]
	if !ok {
		limiter = rate.NewLimiter(c.r, c.b)
		c.limiters[addr] = limiter
	}
	return limiter
}

// RateLimit rejects clients that exceed rps sustained requests per second
// (with the given burst) with 429.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiters := newClientLimiters(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !limiters.get(host).Allow() {
				envelope.WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
