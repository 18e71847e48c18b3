package http

import (
	"context"
	"html/template"
	"io"

	"github.com/mrlokans/llmreader/internal/auth"
	"github.com/mrlokans/llmreader/internal/demo"
	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/highlights"
	"github.com/mrlokans/llmreader/internal/library"
	"github.com/mrlokans/llmreader/internal/ratelimit"
)

// BookStore loads converted books.
type BookStore interface {
	Load(bookID string) (*entities.Book, error)
	List() ([]entities.BookSummary, error)
	ImagePath(bookID, name string) (string, bool)
}

// Uploader turns an uploaded file into a library book.
type Uploader interface {
	Supports(filename string) bool
	Ingest(ctx context.Context, filename string, body io.Reader) (*library.IngestResult, error)
}

// TagManager reads and replaces book tags.
type TagManager interface {
	Get(bookID string) ([]string, error)
	Set(bookID string, raw []string) ([]string, error)
	ListAll() ([]string, error)
}

// HighlightStore persists highlights.
type HighlightStore interface {
	All() entities.HighlightDocument
	ForBook(bookID string) []entities.Highlight
	Create(bookID string, in highlights.NewHighlight) (entities.Highlight, error)
	UpdateNote(id string, note *string) (entities.Highlight, error)
	Delete(id string) error
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books      BookStore
	Uploader   Uploader
	Tags       TagManager
	Highlights HighlightStore

	// Authentication, both nil serves every route without a login
	AuthController *auth.AuthController
	AuthMiddleware *auth.Middleware

	// CSRF protection for the login form, nil key disables it
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string

	// Client IP resolution and upload throttling
	TrustedIPHeader string
	UploadLimiter   *ratelimit.KeyedRateLimiter
	MaxUploadBytes  int64 // 0 leaves uploads unbounded

	// Read-only demo mode, nil allows writes
	Demo *demo.Middleware

	// UI; nil templates answer every page with JSON
	Templates *template.Template
	BasePath  string

	// Application info
	Version     string
	LibraryRoot string // checked by /health
}
