package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestOpenRedirectPrevention verifies that redirect paths are properly sanitized.
func TestOpenRedirectPrevention(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty path", "", "/"},
		{"root path", "/", "/"},
		{"local path", "/reader/read/x_data/1", "/reader/read/x_data/1"},
		{"local path with query", "/search?q=test", "/search?q=test"},
		{"protocol-relative URL", "//evil.com", "/"},
		{"full URL with scheme", "https://evil.com", "/"},
		{"URL with scheme in path", "/https://evil.com", "/"},
		{"backslash escape attempt", "/foo\\bar", "/"},
		{"backslash at start", "\\evil.com", "/"},
		{"javascript URL", "javascript:alert(1)", "/"},
		{"no leading slash", "evil.com", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeRedirectPath(tt.input, "/")
			if result != tt.expected {
				t.Errorf("sanitizeRedirectPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	} {
		if got := rr.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy header missing")
	}
}

func TestStrictTransportSecurityMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS expected over HTTPS")
	}
}
