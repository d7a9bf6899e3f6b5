package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
)

// LoginLimiter throttles sign-in attempts per email address and master password checks
// per client
type LoginLimiter struct {
	limiter *httprate.RateLimiter
}

// NewLoginLimiter allows limit attempts per email within window
func NewLoginLimiter(limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{limiter: httprate.NewRateLimiter(limit, window)}
}

// Allow counts an attempt for email and reports whether it is within the limit.
// Rate limit headers are written either way.
func (l *LoginLimiter) Allow(c *gin.Context, email string) bool {
	if l == nil {
		return true
	}
	key := "login:" + strings.ToLower(strings.TrimSpace(email))
	return !l.limiter.OnLimit(c.Writer, c.Request, key)
}

// AllowClient counts an attempt against scope for the client IP and reports whether it is
// within the limit
func (l *LoginLimiter) AllowClient(c *gin.Context, scope string) bool {
	if l == nil {
		return true
	}
	return !l.limiter.OnLimit(c.Writer, c.Request, scope+":"+c.ClientIP())
}
