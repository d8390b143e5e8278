package ratelimit

import (
	"fmt"
	"net/http"

	"billetter/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware throttles requests per client IP within a scope.
func Middleware(rateLimiter *RateLimiter, scope Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := rateLimiter.IsAllowed(c.Request.Context(), c.ClientIP(), scope)
		if err != nil {
			// Fail open on Redis trouble.
			logger.GetDefault().Warn("rate limit check failed", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Слишком много запросов"})
			c.Abort()
			return
		}

		c.Next()
	}
}
