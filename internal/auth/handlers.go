package auth

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
// Returns true if the path is safe for redirect (local path only).
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}

	// Must start with /
	if !strings.HasPrefix(path, "/") {
		return false
	}

	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}

	// Reject URLs with schemes
	if strings.Contains(path, "://") {
		return false
	}

	// Reject paths with backslashes (potential bypass attempts)
	if strings.Contains(path, "\\") {
		return false
	}

	return true
}

// sanitizeRedirectPath returns path when it is local, otherwise fallback.
func sanitizeRedirectPath(path, fallback string) string {
	if isLocalPath(path) {
		return path
	}
	return fallback
}

// ControllerConfig wires an AuthController.
type ControllerConfig struct {
	Verifier        *PasswordVerifier
	Sessions        *SessionCodec
	Limiter         *LoginLimiter
	Templates       *template.Template // nil renders JSON
	BasePath        string
	TrustedIPHeader string
}

// AuthController handles the login and logout endpoints.
type AuthController struct {
	verifier        *PasswordVerifier
	sessions        *SessionCodec
	limiter         *LoginLimiter
	templates       *template.Template
	basePath        string
	trustedIPHeader string
}

func NewAuthController(cfg ControllerConfig) *AuthController {
	return &AuthController{
		verifier:        cfg.Verifier,
		sessions:        cfg.Sessions,
		limiter:         cfg.Limiter,
		templates:       cfg.Templates,
		basePath:        cfg.BasePath,
		trustedIPHeader: cfg.TrustedIPHeader,
	}
}

// RegisterRoutes registers authentication routes on the router. loginMiddleware
// wraps only the login form, e.g. CSRF protection.
func (ac *AuthController) RegisterRoutes(router gin.IRouter, loginMiddleware ...gin.HandlerFunc) {
	login := router.Group("/login", loginMiddleware...)
	login.GET("", ac.LoginPage)
	login.POST("", ac.Login)

	router.GET("/logout", ac.Logout)
	router.POST("/logout", ac.Logout)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.limiter != nil {
		ac.limiter.Stop()
	}
}

func (ac *AuthController) home() string {
	return ac.basePath + "/"
}

// LoginPage renders the login form.
// GET /login
func (ac *AuthController) LoginPage(c *gin.Context) {
	if cookie, err := c.Cookie(ac.sessions.CookieName()); err == nil && ac.sessions.Verify(cookie) == nil {
		c.Redirect(http.StatusFound, ac.home())
		return
	}

	ac.renderTemplate(c, http.StatusOK, "login.html", gin.H{
		"Title":     "Login",
		"BasePath":  ac.basePath,
		"Next":      sanitizeRedirectPath(c.Query("next"), ac.home()),
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Login handles the login form submission.
// POST /login
func (ac *AuthController) Login(c *gin.Context) {
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"), ac.home())
	clientIP := ClientIP(c.Request, ac.trustedIPHeader)

	if ac.limiter != nil {
		if allowed, retryAfter := ac.limiter.Allow(clientIP); !allowed {
			slog.Warn("login rate limited", "ip", clientIP, "retry_after", retryAfter.Round(time.Second).String())
			c.Header("Retry-After", retryAfterSeconds(retryAfter))
			ac.renderTemplate(c, http.StatusTooManyRequests, "login.html", gin.H{
				"Title":     "Login",
				"BasePath":  ac.basePath,
				"Next":      next,
				"CSRFToken": GetCSRFToken(c),
				"Error":     "Too many login attempts. Please try again later.",
			})
			return
		}
	}

	if err := ac.verifier.Check(password); err != nil {
		if ac.limiter != nil {
			ac.limiter.RecordFailure(clientIP)
		}
		slog.Info("failed login attempt", "ip", clientIP)
		ac.renderTemplate(c, http.StatusUnauthorized, "login.html", gin.H{
			"Title":     "Login",
			"BasePath":  ac.basePath,
			"Next":      next,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Invalid password",
		})
		return
	}

	value, err := ac.sessions.Issue()
	if err != nil {
		slog.Error("failed to issue session", "error", err)
		ac.renderTemplate(c, http.StatusInternalServerError, "login.html", gin.H{
			"Title":     "Login",
			"BasePath":  ac.basePath,
			"Next":      next,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Failed to create session",
		})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ac.sessions.CookieName(), value, int(ac.sessions.Lifetime().Seconds()), "/", "", IsHTTPS(c.Request), true)
	c.Redirect(http.StatusFound, next)
}

// Logout clears the session cookie and redirects to login.
// GET /logout
func (ac *AuthController) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ac.sessions.CookieName(), "", -1, "/", "", IsHTTPS(c.Request), true)
	c.Redirect(http.StatusFound, ac.basePath+"/login")
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *AuthController) renderTemplate(c *gin.Context, status int, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(status, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// retryAfterSeconds formats d for the Retry-After header, rounding up.
func retryAfterSeconds(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
