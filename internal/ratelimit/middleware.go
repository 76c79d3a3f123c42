package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/httpx"
)

// KeyFunc extracts the limiting key from a request. An empty key skips limiting.
type KeyFunc func(c *gin.Context) string

// ByIP keys on the client address as resolved by gin's trusted proxy settings.
func ByIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByUser keys on the authenticated user and falls back to the client IP.
func ByUser(c *gin.Context) string {
	if p, ok := httpx.PrincipalFrom(c); ok {
		return "user:" + p.UserID.String()
	}
	return "ip:" + c.ClientIP()
}

// Middleware rejects requests over limit per window with RATE_LIMITED.
// Limiter errors are logged and the limiter's decision still applies.
func Middleware(limiter Limiter, name string, limit int, window time.Duration, key KeyFunc, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}
		k := key(c)
		if k == "" {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 250*time.Millisecond)
		allowed, err := limiter.Allow(ctx, name+":"+k, limit, window)
		cancel()
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.Error(err), zap.String("limit", name))
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			httpx.Error(c, apperrors.New(apperrors.CodeRateLimited, "too many requests, slow down", nil), devMode)
			return
		}
		c.Next()
	}
}
