// Package auth gates the reader behind a single shared password.
//
// A successful login issues a signed session cookie that carries only an
// "authenticated" flag and the time it was issued. Every request other than
// the login page and the health check must present a cookie that verifies and
// is younger than the session lifetime, otherwise it is redirected to the
// login page with the original location in the "next" parameter.
//
// # Configuration
//
//	LLMREADER_PASSWORD=<password>         # Required
//	LLMREADER_SECRET_KEY=<random string>  # Auto-generated if empty; sessions then end on restart
//	AUTH_SESSION_LIFETIME=720h            # 30 days
//	AUTH_MAX_LOGIN_ATTEMPTS=5             # Failures per IP inside the window
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_TRUSTED_IP_HEADER=CF-Connecting-IP
//	AUTH_CSRF_ENABLED=false
//
// # Usage
//
//	sessions := auth.NewSessionCodec(cfg.Auth.CookieName, secret, cfg.Auth.SessionLifetime)
//	router.Use(auth.NewMiddleware(sessions, basePath).Handler())
package auth
