package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Library
		Global
		UI
		Auth
		Upload
		Export
		Log
	}

	HTTP struct {
		Port     int32
		Host     string
		BasePath string // Prefix the app is mounted under behind a proxy, e.g. "/reader"
	}
	Library struct {
		BooksDir       string
		HighlightsFile string // Relative paths resolve against BooksDir
		CacheSize      int
		Watch          bool // Invalidate the book cache on *_data directory changes
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		DemoMode                 bool // Reject every write except login and logout
	}
	UI struct {
		TemplatesPath string // Empty uses the embedded templates
	}
	Auth struct {
		Password        string
		SecretKey       string
		SessionLifetime time.Duration
		CookieName      string

		// Rate limiting configuration
		MaxLoginAttempts int           // Failed attempts allowed inside the window (default: 5)
		RateLimitWindow  time.Duration // Sliding window for counting failures (default: 15m)
		TrustedIPHeader  string        // Proxy-injected client IP header (default: CF-Connecting-IP)

		CSRFEnabled    bool
		SecureCookies  bool     // Always mark the CSRF cookie Secure, for deployments behind HTTPS
		TrustedOrigins []string // Extra hosts allowed to post the login form, e.g. "books.example.com"
	}
	Upload struct {
		RatePerMinute float64 // Conversions allowed per client per minute, 0 disables throttling
		Burst         int
		MaxSizeMB     int64 // 0 leaves uploads unbounded
	}
	Export struct {
		Enabled  bool
		Dir      string // Vault directory receiving one Markdown file per book
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	Log struct {
		Level  string
		Format string // "text" or "json"
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8123)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("base_path", "")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("demo_mode", false)
	v.SetDefault("books_dir", DefaultBooksDir)
	v.SetDefault("highlights_file", DefaultHighlightsFile)
	v.SetDefault("book_cache_size", DefaultBookCacheSize)
	v.SetDefault("watch_library", true)
	v.SetDefault("templates_path", "")

	// Auth defaults
	v.SetDefault("llmreader_password", "")
	v.SetDefault("llmreader_secret_key", "")           // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "720h")       // 30 days
	v.SetDefault("auth_cookie_name", DefaultCookieName)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_trusted_ip_header", "CF-Connecting-IP")
	v.SetDefault("auth_csrf_enabled", false)
	v.SetDefault("auth_secure_cookies", false)
	v.SetDefault("auth_trusted_origins", "")

	// Upload throttling defaults
	v.SetDefault("upload_rate_per_minute", 6)
	v.SetDefault("upload_burst", 3)
	v.SetDefault("upload_max_size_mb", 200)

	// Scheduled vault export defaults
	v.SetDefault("export_enabled", false)
	v.SetDefault("export_dir", "")
	v.SetDefault("export_schedule", "0 * * * *") // Hourly at :00

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	return &Config{
		HTTP: HTTP{
			Port:     v.GetInt32("PORT"),
			Host:     v.GetString("HOST"),
			BasePath: normalizeBasePath(v.GetString("BASE_PATH")),
		},
		Library: Library{
			BooksDir:       v.GetString("BOOKS_DIR"),
			HighlightsFile: v.GetString("HIGHLIGHTS_FILE"),
			CacheSize:      v.GetInt("BOOK_CACHE_SIZE"),
			Watch:          v.GetBool("WATCH_LIBRARY"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			DemoMode:                 v.GetBool("DEMO_MODE"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
		},
		Auth: Auth{
			Password:         v.GetString("LLMREADER_PASSWORD"),
			SecretKey:        v.GetString("LLMREADER_SECRET_KEY"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			CookieName:       v.GetString("AUTH_COOKIE_NAME"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			TrustedIPHeader:  v.GetString("AUTH_TRUSTED_IP_HEADER"),
			CSRFEnabled:      v.GetBool("AUTH_CSRF_ENABLED"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			TrustedOrigins:   splitList(v.GetString("AUTH_TRUSTED_ORIGINS")),
		},
		Upload: Upload{
			RatePerMinute: v.GetFloat64("UPLOAD_RATE_PER_MINUTE"),
			Burst:         v.GetInt("UPLOAD_BURST"),
			MaxSizeMB:     v.GetInt64("UPLOAD_MAX_SIZE_MB"),
		},
		Export: Export{
			Enabled:  v.GetBool("EXPORT_ENABLED"),
			Dir:      v.GetString("EXPORT_DIR"),
			Schedule: v.GetString("EXPORT_SCHEDULE"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// normalizeBasePath turns "reader/" or "/reader/" into "/reader" and "/" into "".
func normalizeBasePath(p string) string {
	for len(p) > 0 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	if p != "" && p[0] != '/' {
		p = "/" + p
	}
	return p
}

// splitList parses a comma separated setting, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
