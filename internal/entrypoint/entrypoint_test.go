package entrypoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/llmreader/internal/config"
	http_controllers "github.com/mrlokans/llmreader/internal/http"
	"github.com/mrlokans/llmreader/internal/ratelimit"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Library.BooksDir = filepath.Join(t.TempDir(), "books")
	cfg.Auth.Password = "hunter2"
	cfg.Auth.SecretKey = "secret"
	cfg.HTTP.BasePath = "/reader"
	return cfg
}

func TestNewApp_CreatesLibrary(t *testing.T) {
	cfg := testConfig(t)

	app, err := NewApp(cfg)
	require.NoError(t, err)

	assert.DirExists(t, cfg.Library.BooksDir)
	assert.Equal(t, filepath.Join(cfg.Library.BooksDir, "highlights.json"), app.Highlights.Path())
	assert.True(t, app.Ingestor.Supports("book.epub"))
	assert.True(t, app.Ingestor.Supports("book.PDF"))
	assert.False(t, app.Ingestor.Supports("book.mobi"))
}

func TestHighlightsPath(t *testing.T) {
	cfg := &config.Config{}
	cfg.Library.BooksDir = "/srv/books"

	assert.Equal(t, "/srv/books/highlights.json", HighlightsPath(cfg))

	cfg.Library.HighlightsFile = "notes/hl.json"
	assert.Equal(t, "/srv/books/notes/hl.json", HighlightsPath(cfg))

	cfg.Library.HighlightsFile = "/var/lib/hl.json"
	assert.Equal(t, "/var/lib/hl.json", HighlightsPath(cfg))
}

func TestNewRouterConfig_RequiresPassword(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Password = ""
	app, err := NewApp(cfg)
	require.NoError(t, err)

	_, _, err = newRouterConfig(cfg, app, "test")
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestNewRouterConfig_Wiring(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.SecretKey = ""
	cfg.Auth.CSRFEnabled = true
	cfg.Auth.SecureCookies = true
	cfg.Auth.TrustedOrigins = []string{"books.example.com"}
	cfg.Upload.RatePerMinute = 10
	app, err := NewApp(cfg)
	require.NoError(t, err)

	routerCfg, stop, err := newRouterConfig(cfg, app, "1.2.3")
	require.NoError(t, err)
	t.Cleanup(stop)
	t.Cleanup(routerCfg.UploadLimiter.Stop)

	assert.Len(t, routerCfg.CSRFKey, 32)
	assert.NotNil(t, routerCfg.UploadLimiter)
	assert.NotNil(t, routerCfg.Templates)
	assert.Equal(t, int64(200<<20), routerCfg.MaxUploadBytes)
	assert.Nil(t, routerCfg.Demo)
	assert.True(t, routerCfg.SecureCookies)
	assert.Equal(t, []string{"books.example.com"}, routerCfg.TrustedOrigins)

	router := http_controllers.NewRouter(routerCfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/reader/login?next=%2Freader%2F", rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="gorilla.csrf.Token"`)

	var csrfCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "_gorilla_csrf" {
			csrfCookie = c
		}
	}
	require.NotNil(t, csrfCookie)
	assert.True(t, csrfCookie.Secure)
}

func TestNewRouterConfig_DemoMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Global.DemoMode = true
	cfg.Upload.RatePerMinute = 0
	app, err := NewApp(cfg)
	require.NoError(t, err)

	routerCfg, stop, err := newRouterConfig(cfg, app, "test")
	require.NoError(t, err)
	t.Cleanup(stop)

	require.NotNil(t, routerCfg.Demo)
	assert.True(t, routerCfg.Demo.IsEnabled())
	assert.Nil(t, routerCfg.UploadLimiter)
}

func TestRun_InvalidExportScheduleFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Library.Watch = false
	cfg.Log.Level = "error"
	cfg.Export.Enabled = true
	cfg.Export.Dir = t.TempDir()
	cfg.Export.Schedule = "not a schedule"

	err := Run(context.Background(), cfg, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start export scheduler")
}

func TestStopBackground(t *testing.T) {
	stopped := 0
	routerCfg := http_controllers.RouterConfig{UploadLimiter: ratelimit.New(1, 1)}

	stopBackground(routerCfg, func() { stopped++ })
	assert.Equal(t, 1, stopped)
	assert.NotPanics(t, routerCfg.UploadLimiter.Stop, "limiter stop is idempotent")

	stopBackground(http_controllers.RouterConfig{}, func() { stopped++ })
	assert.Equal(t, 2, stopped)
}
