package exporters

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/highlights"
	"github.com/mrlokans/llmreader/internal/utils"
)

// VaultExporter writes one note per highlighted book into a directory, such
// as a folder inside an Obsidian vault. Existing notes are replaced.
type VaultExporter struct {
	Dir string
	now func() time.Time
}

func NewVaultExporter(dir string) *VaultExporter {
	return &VaultExporter{Dir: dir, now: time.Now}
}

// Export writes notes for every book in doc that has highlights. A book that
// fails to write is counted and skipped.
func (e *VaultExporter) Export(doc entities.HighlightDocument, books BookSource) (ExportResult, error) {
	result := ExportResult{}
	if e.Dir == "" {
		return result, fmt.Errorf("export directory not configured")
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create export directory: %w", err)
	}

	now := e.now()
	for _, bookID := range highlights.BookIDs(doc) {
		entry := doc[bookID]
		if entry == nil || len(entry.Highlights) == 0 {
			continue
		}

		book := lookupBook(books, bookID)
		note, err := GenerateBookNote(bookID, book, entry.Highlights, now)
		if err == nil {
			err = utils.WriteFileAtomic(e.notePath(book, bookID), []byte(note), 0o644)
		}
		if err != nil {
			slog.Warn("vault export: failed to write note", "book_id", bookID, "error", err)
			result.BooksFailed++
			continue
		}

		result.BooksProcessed++
		result.HighlightsProcessed += len(entry.Highlights)
	}
	return result, nil
}

func (e *VaultExporter) notePath(book *entities.Book, bookID string) string {
	return filepath.Join(e.Dir, utils.SanitizeFilename(bookTitle(book, bookID))+".md")
}
