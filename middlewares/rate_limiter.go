package middlewares

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/utils"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	clients map[string]*visitor
	mu      sync.Mutex
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const visitorIdleTimeout = 10 * time.Minute

func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		burst:   burst,
		clients: make(map[string]*visitor),
	}
}

// NewStrictRateLimiter is used on login and register: 5 attempts per minute.
func NewStrictRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Every(time.Minute/5), 5)
}

// NewBookingRateLimiter guards the public booking endpoint.
func NewBookingRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Every(6*time.Second), 10)
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, v := range rl.clients {
		if now.Sub(v.lastSeen) > visitorIdleTimeout {
			delete(rl.clients, key)
		}
	}

	v, exists := rl.clients[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			utils.RespondError(c, http.StatusTooManyRequests, errors.New("Too many requests, please wait a moment"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// GlobalRateLimit caps total throughput across all clients.
func GlobalRateLimit(perSecond int) gin.HandlerFunc {
	if perSecond <= 0 {
		perSecond = 50
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), perSecond*2)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			utils.RespondError(c, http.StatusTooManyRequests, errors.New("Too many requests"))
			c.Abort()
			return
		}
		c.Next()
	}
}
