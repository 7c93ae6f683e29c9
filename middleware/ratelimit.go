package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiters hands out one token bucket per client address. Buckets idle for
// longer than idle are dropped.
type Limiters struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

func NewLimiters(limit rate.Limit, burst int, idle time.Duration) *Limiters {
	return &Limiters{
		limit:   limit,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

func (l *Limiters) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	if ts.Sub(l.lastSweep) > l.idle {
		for k, c := range l.clients {
			if ts.Sub(c.seen) > l.idle {
				delete(l.clients, k)
			}
		}
		l.lastSweep = ts
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.seen = ts
	return c.limiter.AllowN(ts, 1)
}

func RateLimit(limiters *Limiters) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", "1")
				writeErrorResponse(w, http.StatusTooManyRequests, "Too many searches, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
