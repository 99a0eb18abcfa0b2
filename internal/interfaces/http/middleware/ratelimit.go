package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/installments/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Limiter counts requests per key in fixed windows
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
}

// RateLimit refuses clients that exceed the limiter's window. Authenticated
// callers are keyed by user id, others by client IP. Limiter failures let
// the request through.
func RateLimit(limiter Limiter, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID := GetJWTUserID(c); userID != "" {
			key = "user:" + userID
		}

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			abortWithError(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}
