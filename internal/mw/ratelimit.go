package mw

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused client limiter is kept.
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter stores a token bucket per client key.
type ClientRateLimiter struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	r       rate.Limit
	b       int
	now     func() time.Time
}

// NewClientRateLimiter creates a limiter allowing r events per second with
// bursts of b per client.
func NewClientRateLimiter(r rate.Limit, b int) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients: make(map[string]*clientLimiter),
		r:       r,
		b:       b,
		now:     time.Now,
	}
}

// Allow consumes one token for key. Limiters idle for longer than
// idleLimiterTTL are evicted on the way.
func (l *ClientRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.clients[key] = cl
		l.evictIdle(now)
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (l *ClientRateLimiter) evictIdle(now time.Time) {
	for key, cl := range l.clients {
		if !cl.lastSeen.IsZero() && now.Sub(cl.lastSeen) > idleLimiterTTL {
			delete(l.clients, key)
		}
	}
}

// Len returns the number of tracked clients.
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// ClientKey identifies the caller. When ipHeader is set (e.g. behind a
// reverse proxy) its first comma-separated value wins over the socket
// address.
func ClientKey(c *gin.Context, ipHeader string) string {
	if ipHeader != "" {
		if v := c.GetHeader(ipHeader); v != "" {
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = v[:i]
			}
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return c.ClientIP()
}

// RateLimiter is a middleware for per-client rate limiting.
func RateLimiter(r rate.Limit, b int, ipHeader string) gin.HandlerFunc {
	limiter := NewClientRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.Allow(ClientKey(c, ipHeader)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
