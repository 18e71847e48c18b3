// Package demo provides the read-only demo mode and a sample library seeder.
package demo

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BlockedMessage is returned for writes rejected in demo mode.
const BlockedMessage = "This action is disabled in demo mode"

// Middleware blocks write operations in demo mode.
// Read-only operations (GET) are always allowed.
type Middleware struct {
	enabled bool
}

// NewMiddleware creates a demo mode middleware.
func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

// IsEnabled returns whether demo mode is active.
func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that rejects uploads, tag edits and
// highlight mutations while letting visitors browse and log in.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		respondBlocked(c)
	}
}

// isAllowedPath reports whether a non-GET request may pass. Only the login
// flow is writable.
func isAllowedPath(path string) bool {
	return path == "/login" || path == "/logout"
}

func respondBlocked(c *gin.Context) {
	if strings.Contains(c.GetHeader("Accept"), "application/json") ||
		strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     BlockedMessage,
			"demo_mode": true,
		})
		return
	}

	c.String(http.StatusForbidden, BlockedMessage)
	c.Abort()
}
