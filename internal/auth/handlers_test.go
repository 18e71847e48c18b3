package auth

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	router   *gin.Engine
	sessions *SessionCodec
	limiter  *LoginLimiter
	clock    *fakeClock
}

func setupAuthController(t *testing.T, tmpl *template.Template) *authFixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	verifier, err := NewPasswordVerifier("hunter2", "secret")
	require.NoError(t, err)
	sessions := NewSessionCodec("llmreader_auth", "secret", 720*time.Hour)
	limiter := newTestLimiter(t, clock)

	controller := NewAuthController(ControllerConfig{
		Verifier:        verifier,
		Sessions:        sessions,
		Limiter:         limiter,
		Templates:       tmpl,
		BasePath:        "/reader",
		TrustedIPHeader: "CF-Connecting-IP",
	})

	router := gin.New()
	controller.RegisterRoutes(router)
	return &authFixture{router: router, sessions: sessions, limiter: limiter, clock: clock}
}

func postLogin(f *authFixture, password, next, ip string) *httptest.ResponseRecorder {
	form := url.Values{"password": {password}, "next": {next}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("CF-Connecting-IP", ip)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == "llmreader_auth" {
			return c
		}
	}
	return nil
}

func TestLogin_Success(t *testing.T) {
	f := setupAuthController(t, nil)

	rr := postLogin(f, "hunter2", "/reader/read/dune_data/2", "1.2.3.4")

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/reader/read/dune_data/2", rr.Header().Get("Location"))

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 30*24*60*60, cookie.MaxAge)
	assert.NoError(t, f.sessions.Verify(cookie.Value))
}

func TestLogin_SecureCookieBehindHTTPSProxy(t *testing.T) {
	f := setupAuthController(t, nil)

	form := url.Values{"password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/reader/", rr.Header().Get("Location"))
}

func TestLogin_RejectsOpenRedirect(t *testing.T) {
	f := setupAuthController(t, nil)

	rr := postLogin(f, "hunter2", "//evil.com", "1.2.3.4")

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/reader/", rr.Header().Get("Location"))
}

func TestLogin_WrongPassword(t *testing.T) {
	f := setupAuthController(t, nil)

	rr := postLogin(f, "wrong", "/reader/", "1.2.3.4")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, sessionCookie(rr))
	assert.Contains(t, rr.Body.String(), "Invalid password")
}

func TestLogin_RateLimitAfterFiveFailures(t *testing.T) {
	f := setupAuthController(t, nil)

	for i := 0; i < 5; i++ {
		rr := postLogin(f, "wrong", "/reader/", "1.2.3.4")
		require.Equal(t, http.StatusUnauthorized, rr.Code, "attempt %d", i+1)
		f.clock.Advance(time.Minute)
	}

	// correct password is still refused while limited
	rr := postLogin(f, "hunter2", "/reader/", "1.2.3.4")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Nil(t, sessionCookie(rr))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// another client is not affected
	rr = postLogin(f, "hunter2", "/reader/", "5.6.7.8")
	assert.Equal(t, http.StatusFound, rr.Code)

	// once the window has passed the first client may log in again
	f.clock.Advance(15 * time.Minute)
	rr = postLogin(f, "hunter2", "/reader/", "1.2.3.4")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.NotNil(t, sessionCookie(rr))
}

func TestLogin_SuccessDoesNotResetFailures(t *testing.T) {
	f := setupAuthController(t, nil)

	for i := 0; i < 4; i++ {
		postLogin(f, "wrong", "/reader/", "1.2.3.4")
	}
	rr := postLogin(f, "hunter2", "/reader/", "1.2.3.4")
	require.Equal(t, http.StatusFound, rr.Code)

	rr = postLogin(f, "wrong", "/reader/", "1.2.3.4")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = postLogin(f, "hunter2", "/reader/", "1.2.3.4")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestLoginPage_RendersTemplate(t *testing.T) {
	tmpl := template.Must(template.New("login.html").Parse(`next={{.Next}} error={{.Error}}`))
	f := setupAuthController(t, tmpl)

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login?next=/reader/highlights&error=oops", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "next=/reader/highlights error=oops", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
}

func TestLoginPage_RedirectsWhenAuthenticated(t *testing.T) {
	f := setupAuthController(t, nil)
	value, err := f.sessions.Issue()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "llmreader_auth", Value: value})
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/reader/", rr.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	f := setupAuthController(t, nil)

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/logout", nil))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/reader/login", rr.Header().Get("Location"))
	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "1", retryAfterSeconds(300*time.Millisecond))
	assert.Equal(t, "600", retryAfterSeconds(10*time.Minute))
	assert.Equal(t, "601", retryAfterSeconds(10*time.Minute+time.Millisecond))
}
