package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/llmreader/internal/auth"
	"github.com/mrlokans/llmreader/internal/ratelimit"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Routes are registered without the base path; the proxy in front strips it
// and the base path is only used to build links and redirects.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	if cfg.Demo != nil {
		router.Use(cfg.Demo.Handler())
	}

	if cfg.Templates != nil {
		router.SetHTMLTemplate(cfg.Templates)
	}

	health := NewHealthController(cfg.LibraryRoot, cfg.Version)
	router.GET("/health", health.Status)

	if cfg.AuthController != nil {
		var loginMiddleware []gin.HandlerFunc
		if len(cfg.CSRFKey) > 0 {
			loginMiddleware = append(loginMiddleware, auth.CSRFMiddleware(cfg.CSRFKey, cfg.SecureCookies, cfg.TrustedOrigins...))
		}
		cfg.AuthController.RegisterRoutes(router, loginMiddleware...)
	}

	library := NewLibraryController(cfg.Books, cfg.Templates, cfg.BasePath)
	reader := NewReaderController(cfg.Books, cfg.Templates, cfg.BasePath)
	highlightsController := NewHighlightsController(cfg.Highlights, cfg.Books, cfg.Templates, cfg.BasePath)
	tagsController := NewTagsController(cfg.Tags)

	// Pages
	router.GET("/", library.Index)
	router.GET("/read/:book_id", reader.ReadFirstChapter)
	router.GET("/read/:book_id/:chapter_index", reader.ReadChapter)
	router.GET("/read/:book_id/images/:name", reader.ServeImage)
	router.GET("/highlights", highlightsController.HighlightsPage)

	if cfg.Uploader != nil {
		upload := NewUploadController(cfg.Uploader, cfg.MaxUploadBytes)
		clientIP := func(c *gin.Context) string {
			return auth.ClientIP(c.Request, cfg.TrustedIPHeader)
		}
		router.POST("/upload", ratelimit.Middleware(cfg.UploadLimiter, clientIP), upload.Upload)
	}

	api := router.Group("/api")
	{
		api.GET("/tags", tagsController.GetAllTags)
		api.GET("/books/:id/tags", tagsController.GetBookTags)
		api.PUT("/books/:id/tags", tagsController.UpdateBookTags)

		api.GET("/books/:id/chapters/:chapter_index/text", reader.ChapterText)

		api.GET("/highlights", highlightsController.GetAllHighlights)
		api.GET("/highlights/export/markdown", highlightsController.ExportMarkdown)
		api.GET("/books/:id/highlights", highlightsController.GetBookHighlights)
		api.POST("/books/:id/highlights", highlightsController.CreateHighlight)
		api.PUT("/highlights/:id", highlightsController.UpdateHighlight)
		api.DELETE("/highlights/:id", highlightsController.DeleteHighlight)
	}

	return router
}
