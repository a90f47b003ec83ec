// Package throttle applies rate limit rules to gin routes.
package throttle

import (
	"net/http"
	"strconv"
	"time"

	"github.com/brewloyal/brewloyal/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// Middleware limits requests per client address under the given rule. The
// kind keeps separate endpoint classes from sharing a counter.
func Middleware(manager *ratelimit.Manager, kind string, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			c.Next()
			return
		}
		key := ratelimit.Key(kind, c.ClientIP())
		result, errAllow := manager.Allow(c.Request.Context(), key, rule)
		if errAllow != nil {
			// Limiter failure never blocks traffic.
			c.Next()
			return
		}
		if !result.Allowed {
			retryAfter := int64(time.Until(result.Reset).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
