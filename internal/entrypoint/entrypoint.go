package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/llmreader/internal/auth"
	"github.com/mrlokans/llmreader/internal/config"
	"github.com/mrlokans/llmreader/internal/demo"
	http_controllers "github.com/mrlokans/llmreader/internal/http"
	"github.com/mrlokans/llmreader/internal/logger"
	"github.com/mrlokans/llmreader/internal/ratelimit"
	"github.com/mrlokans/llmreader/internal/scheduler"
	"github.com/mrlokans/llmreader/internal/watcher"
	"github.com/mrlokans/llmreader/web"
)

// ErrPasswordRequired is returned when the server is started without a login password.
var ErrPasswordRequired = errors.New("LLMREADER_PASSWORD must be set")

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs srv until ctx is done, then shuts it down within the configured timeout.
func Serve(ctx context.Context, router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "base_path", cfg.HTTP.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	}

	slog.Info("shutting down server", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(shutdownCtx)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server exiting")
	return nil
}

// Run wires the library, auth and background jobs and serves until ctx is done.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.Info("starting llmreader", "version", version)

	if logger.ParseLevel(cfg.Log.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := NewApp(cfg)
	if err != nil {
		return err
	}

	routerCfg, stopAuth, err := newRouterConfig(cfg, app, version)
	if err != nil {
		return err
	}
	defer stopBackground(routerCfg, stopAuth)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Library.Watch {
		w, err := watcher.New(app.Books.Root(), app.Books, watcher.Options{Logger: slog.Default()})
		if err != nil {
			slog.Warn("library watcher disabled", "error", err)
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					slog.Error("library watcher stopped", "error", err)
				}
			}()
		}
	}

	exportScheduler := scheduler.NewExportScheduler(scheduler.ExportConfig{
		Enabled:  cfg.Export.Enabled,
		Dir:      cfg.Export.Dir,
		Schedule: cfg.Export.Schedule,
	}, app.Highlights, app.Books)
	if err := exportScheduler.Start(ctx); err != nil {
		return fmt.Errorf("start export scheduler: %w", err)
	}

	router := http_controllers.NewRouter(routerCfg)

	return Serve(ctx, router, cfg, func(ctx context.Context) {
		exportScheduler.Stop()
	})
}

// stopBackground stops the login and upload limiter cleanup goroutines.
func stopBackground(routerCfg http_controllers.RouterConfig, stopAuth func()) {
	stopAuth()
	if routerCfg.UploadLimiter != nil {
		routerCfg.UploadLimiter.Stop()
	}
}

// newRouterConfig builds the router dependencies. The returned func stops the
// auth background goroutines.
func newRouterConfig(cfg *config.Config, app *App, version string) (http_controllers.RouterConfig, func(), error) {
	templates, err := web.Templates(cfg.UI.TemplatesPath)
	if err != nil {
		return http_controllers.RouterConfig{}, nil, err
	}

	if cfg.Auth.Password == "" {
		return http_controllers.RouterConfig{}, nil, ErrPasswordRequired
	}

	secret := cfg.Auth.SecretKey
	if secret == "" {
		secret, err = auth.GenerateSessionSecret()
		if err != nil {
			return http_controllers.RouterConfig{}, nil, fmt.Errorf("generate session secret: %w", err)
		}
		slog.Warn("LLMREADER_SECRET_KEY is not set; sessions will not survive a restart")
	}

	verifier, err := auth.NewPasswordVerifier(cfg.Auth.Password, secret)
	if err != nil {
		return http_controllers.RouterConfig{}, nil, err
	}
	sessions := auth.NewSessionCodec(cfg.Auth.CookieName, secret, cfg.Auth.SessionLifetime)
	limiter := auth.NewLoginLimiter(auth.RateLimitConfig{
		MaxAttempts: cfg.Auth.MaxLoginAttempts,
		Window:      cfg.Auth.RateLimitWindow,
	})

	authController := auth.NewAuthController(auth.ControllerConfig{
		Verifier:        verifier,
		Sessions:        sessions,
		Limiter:         limiter,
		Templates:       templates,
		BasePath:        cfg.HTTP.BasePath,
		TrustedIPHeader: cfg.Auth.TrustedIPHeader,
	})

	routerCfg := http_controllers.RouterConfig{
		Books:           app.Books,
		Uploader:        app.Ingestor,
		Tags:            app.Tags,
		Highlights:      app.Highlights,
		AuthController:  authController,
		AuthMiddleware:  auth.NewMiddleware(sessions, cfg.HTTP.BasePath),
		TrustedIPHeader: cfg.Auth.TrustedIPHeader,
		MaxUploadBytes:  cfg.Upload.MaxSizeMB << 20,
		Templates:       templates,
		BasePath:        cfg.HTTP.BasePath,
		Version:         version,
		LibraryRoot:     app.Books.Root(),
	}

	if cfg.Auth.CSRFEnabled {
		routerCfg.CSRFKey = auth.CSRFKey(secret)
		routerCfg.SecureCookies = cfg.Auth.SecureCookies
		routerCfg.TrustedOrigins = cfg.Auth.TrustedOrigins
	}
	if cfg.Global.DemoMode {
		slog.Info("demo mode enabled, library is read-only")
		routerCfg.Demo = demo.NewMiddleware(true)
	}
	if cfg.Upload.RatePerMinute > 0 {
		routerCfg.UploadLimiter = ratelimit.PerMinute(cfg.Upload.RatePerMinute, cfg.Upload.Burst)
	}

	return routerCfg, authController.Stop, nil
}
