package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/clicker/internal/auth"
	"github.com/dkeye/clicker/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RoomRateLimiter is a per-user sliding window over PIN lookups, so PINs can't
// be enumerated.
type RoomRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.UserID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRoomRateLimiter(limit int, interval time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		history:  make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RoomRateLimiter) Allow(uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[uid]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[uid] = fresh
		return false
	}
	rl.history[uid] = append(fresh, now)
	return true
}

// Middleware rejects callers over the limit with 429. Anonymous requests pass
// through; the guards reject them.
func (rl *RoomRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := auth.UserFromContext(c.Request.Context())
		if ok && !rl.Allow(u.ID) {
			log.Warn().Str("module", "adapters.http").Str("user", string(u.ID)).Str("path", c.FullPath()).Msg("join rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
