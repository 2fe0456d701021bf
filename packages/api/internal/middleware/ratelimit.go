package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/api/internal/identity"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
)

// RateLimit caps how often one caller may hit the wrapped route. It must run
// after the caller is authenticated. When redis is unreachable the request is let through.
func RateLimit(limiter *redis_rate.Limiter, name string, limit redis_rate.Limit) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		user, ok := identity.FromContext(ctx)
		if !ok {
			c.Next()

			return
		}

		res, err := limiter.Allow(ctx, "rate:"+name+":"+user.Email, limit)
		if err != nil {
			logger.L().Warn(ctx, "rate limiter unavailable", zap.String("limit", name), zap.Error(err))
			c.Next()

			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "too many requests, retry later",
			})

			return
		}

		c.Next()
	}
}
