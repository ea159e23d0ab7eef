package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused client bucket is kept.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds one token bucket per client IP.
type rateLimiterStore struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	perMinute int
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiterStore(perMinute int) *rateLimiterStore {
	if perMinute <= 0 {
		perMinute = 100
	}
	return &rateLimiterStore{clients: make(map[string]*clientLimiter), perMinute: perMinute, now: time.Now}
}

// getLimiter returns the bucket for ip, creating it on first use. Idle buckets
// are swept at most once per limiterIdleTTL.
func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > limiterIdleTTL {
		for key, cl := range s.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(s.clients, key)
			}
		}
		s.lastSweep = now
	}

	cl, ok := s.clients[ip]
	if !ok {
		// perMinute requests per minute, all of which may arrive as a burst.
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMinute)), s.perMinute)}
		s.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// RateLimitMiddleware limits requests per IP address to perMinute.
func RateLimitMiddleware(perMinute int, logger *zap.Logger) gin.HandlerFunc {
	store := newRateLimiterStore(perMinute)
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !store.getLimiter(ip).Allow() {
			logger.Warn("ratelimit: exceeded", zap.String("ip", ip), zap.String("path", c.FullPath()))
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
