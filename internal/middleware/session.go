package middleware

import (
	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/pkg/logger"
	"github.com/dws-org/dws-frontend/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionKey is the context key for the request session
const SessionKey = "session"

// Session middleware builds the caller's session from the Authorization
// header. A missing header yields the anonymous session; an invalid or
// expired token also yields the anonymous session, logged at debug level.
// Authorization decisions belong to the handlers, not here.
func Session(provider *identity.Provider, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := provider.SessionFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			log.Debug("rejected bearer token, continuing as anonymous",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err))
		}
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// GetSession returns the request session set by the Session middleware.
// It always returns a usable session; requests that skipped the middleware
// count as anonymous.
func GetSession(c *gin.Context) *identity.Session {
	if v, exists := c.Get(SessionKey); exists {
		if sess, ok := v.(*identity.Session); ok && sess != nil {
			return sess
		}
	}
	return identity.Anonymous()
}

// RequireAuth aborts with 401 unless the request carries an authenticated
// session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).Authenticated {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireOrganiser aborts with 403 unless the session carries the
// organiser role. Unauthenticated requests get 401.
func RequireOrganiser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSession(c)
		if !sess.Authenticated {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if !sess.IsOrganiser() {
			response.Forbidden(c, "organiser role required")
			c.Abort()
			return
		}
		c.Next()
	}
}
