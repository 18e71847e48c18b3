package entrypoint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/llmreader/internal/config"
	"github.com/mrlokans/llmreader/internal/convert"
	"github.com/mrlokans/llmreader/internal/highlights"
	"github.com/mrlokans/llmreader/internal/library"
	"github.com/mrlokans/llmreader/internal/tags"
)

// App holds the library services shared by the server and CLI commands.
type App struct {
	Books      *library.Store
	Ingestor   *library.Ingestor
	Highlights *highlights.Store
	Tags       *tags.Manager
}

// NewApp opens the library directory, creating it if needed.
func NewApp(cfg *config.Config) (*App, error) {
	dir := cfg.Library.BooksDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create books dir %s: %w", dir, err)
	}

	books, err := library.NewStore(dir, cfg.Library.CacheSize)
	if err != nil {
		return nil, err
	}

	return &App{
		Books:      books,
		Ingestor:   library.NewIngestor(books, convert.Converters()),
		Highlights: highlights.NewStore(HighlightsPath(cfg)),
		Tags:       tags.NewManager(books),
	}, nil
}

// HighlightsPath resolves the highlights document; relative paths are taken
// from the books directory.
func HighlightsPath(cfg *config.Config) string {
	path := cfg.Library.HighlightsFile
	if path == "" {
		path = config.DefaultHighlightsFile
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.Library.BooksDir, path)
}
