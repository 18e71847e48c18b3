package http

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/llmreader/internal/auth"
	"github.com/mrlokans/llmreader/internal/demo"
)

func withAuth(t *testing.T, csrfKey []byte) func(*RouterConfig) {
	t.Helper()
	return func(cfg *RouterConfig) {
		verifier, err := auth.NewPasswordVerifier("hunter2", "secret")
		require.NoError(t, err)
		sessions := auth.NewSessionCodec("llmreader_auth", "secret", 720*time.Hour)
		limiter := auth.NewLoginLimiter(auth.DefaultRateLimitConfig())
		t.Cleanup(limiter.Stop)

		cfg.AuthMiddleware = auth.NewMiddleware(sessions, cfg.BasePath)
		cfg.AuthController = auth.NewAuthController(auth.ControllerConfig{
			Verifier:        verifier,
			Sessions:        sessions,
			Limiter:         limiter,
			BasePath:        cfg.BasePath,
			TrustedIPHeader: "CF-Connecting-IP",
		})
		cfg.CSRFKey = csrfKey
	}
}

func TestRouter_RequiresLogin(t *testing.T) {
	env := newTestEnv(t, withAuth(t, nil))

	rr := env.do(http.MethodGet, "/read/dune_data/3?theme=dark", nil, nil)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/reader/login?next="+url.QueryEscape("/reader/read/dune_data/3?theme=dark"), rr.Header().Get("Location"))

	rr = env.sendJSON(http.MethodPost, "/api/books/dune_data/highlights", `{}`)
	assert.Equal(t, http.StatusFound, rr.Code)

	rr = env.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodGet, "/login", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_LoginGrantsAccess(t *testing.T) {
	env := newTestEnv(t, withAuth(t, nil))
	env.addBook(t, "dune_data", "Dune", "One")

	form := url.Values{"password": {"hunter2"}, "next": {"/reader/read/dune_data/0"}}
	rr := env.do(http.MethodPost, "/login", strings.NewReader(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/reader/read/dune_data/0", rr.Header().Get("Location"))

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "llmreader_auth" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	rr = env.do(http.MethodGet, "/read/dune_data/0", nil, map[string]string{
		"Accept": "application/json",
		"Cookie": cookie.Name + "=" + cookie.Value,
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodGet, "/read/dune_data/0", nil, map[string]string{
		"Cookie": cookie.Name + "=" + cookie.Value + "tampered",
	})
	assert.Equal(t, http.StatusFound, rr.Code)
}

func TestRouter_WrongPassword(t *testing.T) {
	env := newTestEnv(t, withAuth(t, nil))

	form := url.Values{"password": {"nope"}}
	rr := env.do(http.MethodPost, "/login", strings.NewReader(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_CSRFProtectsLogin(t *testing.T) {
	env := newTestEnv(t, withAuth(t, []byte("0123456789abcdef0123456789abcdef")))

	form := url.Values{"password": {"hunter2"}}
	rr := env.do(http.MethodPost, "/login", strings.NewReader(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	for _, cookie := range rr.Result().Cookies() {
		assert.NotEqual(t, "llmreader_auth", cookie.Name, "no session without a CSRF token")
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	rr = env.do(http.MethodGet, "/health", nil, map[string]string{"X-Forwarded-Proto": "https"})
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestRouter_DemoModeIsReadOnly(t *testing.T) {
	env := newTestEnv(t, func(cfg *RouterConfig) {
		cfg.Demo = demo.NewMiddleware(true)
	})
	env.addBook(t, "dune_data", "Dune", "One")

	rr := env.getJSON(t, "/api/books/dune_data/tags", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.sendJSON(http.MethodPut, "/api/books/dune_data/tags", `{"tags":["sci-fi"]}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, demo.BlockedMessage, decodeError(t, rr))

	book, err := env.books.Load("dune_data")
	require.NoError(t, err)
	assert.Empty(t, book.Metadata.Tags)
}
