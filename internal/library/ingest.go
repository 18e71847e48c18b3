package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/utils"
)

// uploadChunkSize bounds each read when spooling an upload to disk.
const uploadChunkSize = 1 << 20

var (
	ErrNoFile          = errors.New("no file provided")
	ErrUnsupportedType = errors.New("only .epub or .pdf files are supported")
	ErrBookExists      = errors.New("book already exists in library")
	ErrConversion      = errors.New("failed to process upload")
)

// Converter turns a source document into a book, writing chapter assets
// below outDir. Implementations create outDir themselves.
type Converter interface {
	Convert(ctx context.Context, srcPath, outDir string) (*entities.Book, error)
}

// IngestResult describes a freshly added book.
type IngestResult struct {
	BookID   string `json:"book_id"`
	Title    string `json:"title"`
	Chapters int    `json:"chapters"`
}

// Ingestor adds uploaded documents to the library. Ingestions run one at a
// time so two uploads of the same name cannot both pass the duplicate check.
type Ingestor struct {
	store      *Store
	converters map[string]Converter
	mu         sync.Mutex
	now        func() time.Time
}

// NewIngestor creates an ingestor using converters keyed by lowercase
// extension, e.g. ".epub".
func NewIngestor(store *Store, converters map[string]Converter) *Ingestor {
	normalized := make(map[string]Converter, len(converters))
	for ext, c := range converters {
		normalized[strings.ToLower(ext)] = c
	}
	return &Ingestor{store: store, converters: normalized, now: time.Now}
}

// Supports reports whether filename has an extension with a converter.
func (in *Ingestor) Supports(filename string) bool {
	_, ok := in.converters[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// BookIDFor derives the book directory name for an uploaded file name.
func BookIDFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	safe := utils.SanitizeUploadName(filename, ext)
	return strings.TrimSuffix(safe, filepath.Ext(safe)) + BookDirSuffix
}

// Ingest spools body to a temp file, converts it into a new book directory and
// saves its snapshot. A partially created book directory is removed on failure;
// the temp file is always removed.
func (in *Ingestor) Ingest(ctx context.Context, filename string, body io.Reader) (*IngestResult, error) {
	if filename == "" {
		return nil, ErrNoFile
	}
	ext := strings.ToLower(filepath.Ext(filename))
	converter, ok := in.converters[ext]
	if !ok {
		return nil, ErrUnsupportedType
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	bookID := BookIDFor(filename)
	outDir := in.store.BookDir(bookID)
	if _, err := os.Stat(outDir); err == nil {
		return nil, ErrBookExists
	}

	tmpPath, err := spool(in.store.Root(), ext, body)
	if tmpPath != "" {
		defer func() {
			if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
				slog.Warn("failed to remove upload temp file", "path", tmpPath, "error", err)
			}
		}()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}

	book, err := in.convert(ctx, converter, tmpPath, outDir, filename)
	if err != nil {
		if rmErr := os.RemoveAll(outDir); rmErr != nil {
			slog.Warn("failed to clean up partial book", "book_id", bookID, "error", rmErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	slog.Info("book added", "book_id", bookID, "title", book.Metadata.Title, "chapters", len(book.Spine))
	return &IngestResult{
		BookID:   bookID,
		Title:    book.Metadata.Title,
		Chapters: len(book.Spine),
	}, nil
}

func (in *Ingestor) convert(ctx context.Context, converter Converter, srcPath, outDir, filename string) (*entities.Book, error) {
	book, err := converter.Convert(ctx, srcPath, outDir)
	if err != nil {
		return nil, err
	}
	if book.Metadata.Tags == nil {
		book.Metadata.Tags = []string{}
	}
	if book.Metadata.Title == "" {
		book.Metadata.Title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	book.SourceFile = filepath.Base(filename)
	book.ProcessedAt = in.now().UTC()

	if err := in.store.Save(filepath.Base(outDir), book); err != nil {
		return nil, err
	}
	return book, nil
}

// spool copies body into a temp file in dir using bounded reads.
func spool(dir, ext string, body io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmpFile, err := os.CreateTemp(dir, ".upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	buf := make([]byte, uploadChunkSize)
	if _, err := io.CopyBuffer(tmpFile, body, buf); err != nil {
		return tmpFile.Name(), fmt.Errorf("write upload: %w", err)
	}
	return tmpFile.Name(), tmpFile.Close()
}
