package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/ehs-tracker/internal/infrastructure/identity"
)

// UserIDHeader carries the authenticated user id set by the upstream gateway
const UserIDHeader = "X-User-ID"

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"user_id", c.GetHeader(UserIDHeader),
		)
	}
}

// identityMiddleware resolves the header user into an Identity on the request context.
// Requests without the header pass through anonymous.
func (s *Server) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" || s.resolver == nil {
			c.Next()
			return
		}

		id, err := s.resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			s.logger.Error("Failed to resolve identity", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "failed to resolve identity",
			})
			return
		}

		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identity.FromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "authentication required",
			})
			return
		}
		c.Next()
	}
}
