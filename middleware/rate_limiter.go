package middleware

import (
	"net/http"
	"sync"
	"time"

	"clinicbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds a map of IP addresses to their rate limiters.
type rateLimiterStore struct {
	limiters map[string]*ipLimiter
	mu       sync.Mutex
	perMin   int
}

var limiterStore = newRateLimiterStore(600)

func newRateLimiterStore(perMin int) *rateLimiterStore {
	if perMin <= 0 {
		perMin = 600
	}
	return &rateLimiterStore{limiters: make(map[string]*ipLimiter), perMin: perMin}
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
func (s *rateLimiterStore) getLimiter(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.limiters[ip]
	if !exists {
		// perMin requests per minute, bursting up to a tenth of that.
		burst := s.perMin / 10
		if burst < 1 {
			burst = 1
		}
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), burst)}
		s.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (s *rateLimiterStore) prune(idle time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for ip, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > idle {
			delete(s.limiters, ip)
			removed++
		}
	}
	return removed
}

// SetRequestsPerMinute replaces the global limiter store with one allowing perMin requests per IP.
func SetRequestsPerMinute(perMin int) {
	limiterStore = newRateLimiterStore(perMin)
}

// PruneRateLimiters drops limiters of IPs not seen for idle.
func PruneRateLimiters(idle time.Duration) int {
	return limiterStore.prune(idle, time.Now())
}

// RateLimitMiddleware limits requests per IP address.
func RateLimitMiddleware() gin.HandlerFunc {
	return rateLimit(limiterStore)
}

func rateLimit(store *rateLimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !store.getLimiter(ip, time.Now()).Allow() {
			utils.GetLogger().Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
