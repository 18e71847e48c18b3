package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// ContextKeyAuthenticated is set to true on requests carrying a valid session.
const ContextKeyAuthenticated = "auth_authenticated"

// Middleware redirects requests without a valid session to the login page.
type Middleware struct {
	sessions    *SessionCodec
	basePath    string
	publicPaths map[string]bool
}

// NewMiddleware creates the session gate. basePath is the prefix the app is
// mounted under and is only used to build redirect locations.
func NewMiddleware(sessions *SessionCodec, basePath string) *Middleware {
	return &Middleware{
		sessions: sessions,
		basePath: basePath,
		publicPaths: map[string]bool{
			"/login":  true,
			"/health": true,
		},
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		if m.isAuthenticated(c.Request) {
			c.Set(ContextKeyAuthenticated, true)
			c.Next()
			return
		}

		c.Redirect(http.StatusFound, m.loginURL(c.Request))
		c.Abort()
	}
}

func (m *Middleware) isAuthenticated(r *http.Request) bool {
	cookie, err := r.Cookie(m.sessions.CookieName())
	if err != nil {
		return false
	}
	return m.sessions.Verify(cookie.Value) == nil
}

// loginURL builds the login location carrying the original path and query.
func (m *Middleware) loginURL(r *http.Request) string {
	next := m.basePath + r.URL.Path
	if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	return m.basePath + "/login?next=" + url.QueryEscape(next)
}

// IsAuthenticated reports whether the middleware accepted the request's session.
func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(ContextKeyAuthenticated)
}
