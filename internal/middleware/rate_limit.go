package middleware

import (
	"net/http"
	"strconv"
	"time"

	"diagram-hub/internal/schemas"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateLimitErrorHandler(c *gin.Context, info ratelimit.Info) {
	retryAfter := int(time.Until(info.ResetTime).Seconds())
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, &schemas.Envelope{
		StatusCode: http.StatusTooManyRequests,
		Message:    "Too many requests. Try again in " + strconv.Itoa(retryAfter) + " seconds.",
	})
}

// RateLimit allows limit requests per client IP in every window of length rate.
func RateLimit(rate time.Duration, limit uint) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  rate,
		Limit: limit,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: rateLimitErrorHandler,
		KeyFunc:      keyFunc,
	})
}
