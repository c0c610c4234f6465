package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// client is a rate-limited caller and the last time it sent a request.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// In-memory store, good for a single instance only.
var (
	clients         = make(map[string]*client)
	window          = time.Minute
	limit           = 60
	lastSweep       time.Time
	now             = time.Now
	rateLimiterLock sync.Mutex
)

// RateLimiter limits each client IP to `limit` requests per `window`
// (default 60 per minute) with a token bucket refilled evenly over the window.
// VAP requests re-read and re-aggregate bars, so a runaway client is cut off
// with 429 Too Many Requests. Clients idle for a whole window are forgotten.
func RateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		t := now()

		rateLimiterLock.Lock()
		sweep(t)
		cl, ok := clients[ip]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
			clients[ip] = cl
		}
		cl.lastSeen = t
		allowed := cl.limiter.AllowN(t, 1)
		rateLimiterLock.Unlock()

		if !allowed {
			AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}

		c.Next()
	}
}

// sweep drops clients idle longer than window, at most once per window.
// An idle bucket is full again after one window, so dropping it changes nothing.
// Caller holds rateLimiterLock.
func sweep(t time.Time) {
	if t.Sub(lastSweep) < window {
		return
	}
	lastSweep = t
	for ip, cl := range clients {
		if t.Sub(cl.lastSeen) > window {
			delete(clients, ip)
		}
	}
}
