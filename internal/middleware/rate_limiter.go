package middleware

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"

	"github.com/hafizadha/mrgreedy/internal/utilities"
)

// The API is unauthenticated, so the client IP is the only usable limiter
// key.
func keyFunc(c *gin.Context) string {
	return "ip: " + c.ClientIP()
}

func errorHandler(c *gin.Context, _ ratelimit.Info) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, utilities.ErrorResponse{
		Error: "Too many requests. Please try again later.",
	})
}

// RateLimiter limits each client IP to reqPerSec requests per second.
func RateLimiter(reqPerSec uint) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Second,
		Limit: reqPerSec,
	})

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		KeyFunc:      keyFunc,
		ErrorHandler: errorHandler,
	})
}
