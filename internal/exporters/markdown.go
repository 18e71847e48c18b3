package exporters

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/highlights"
)

// EmptyExport is the whole export when no book has highlights.
const EmptyExport = "# Reading Highlights\n\nNo highlights yet."

// ExportFilename names a download of the export made at now.
func ExportFilename(now time.Time) string {
	return "highlights-" + now.Format("20060102") + ".md"
}

// GenerateMarkdown renders every book's highlights as one Obsidian-friendly
// document: a "## [[Title]]" section per book in id order, a "###" heading per
// chapter and each highlight as a quote with a block reference anchor.
// Books without highlights are left out.
func GenerateMarkdown(doc entities.HighlightDocument, books BookSource) string {
	if doc.Count() == 0 {
		return EmptyExport
	}

	lines := []string{"# Reading Highlights\n"}

	for _, bookID := range highlights.BookIDs(doc) {
		entry := doc[bookID]
		if entry == nil || len(entry.Highlights) == 0 {
			continue
		}

		book := lookupBook(books, bookID)
		lines = append(lines, fmt.Sprintf("\n## [[%s]]\n", bookTitle(book, bookID)))

		for _, group := range highlights.GroupByChapter(entry.Highlights) {
			lines = append(lines, fmt.Sprintf("\n### %s\n", book.ChapterTitle(group.ChapterIndex)))

			for _, h := range group.Highlights {
				lines = append(lines, fmt.Sprintf("> %s\n", strings.TrimSpace(h.Text)))

				id := h.ID
				if id == "" {
					id = "unknown"
				}
				lines = append(lines, fmt.Sprintf("^%s\n", id))

				if note := strings.TrimSpace(h.Note); note != "" {
					lines = append(lines, fmt.Sprintf("Note: %s\n", note))
				}
				if created, ok := h.CreatedAt(); ok {
					lines = append(lines, fmt.Sprintf("Created: %s\n", created.Format("2006-01-02")))
				}

				lines = append(lines, "\n---\n")
			}
		}
	}

	return strings.Join(lines, "\n")
}

// lookupBook loads a book for display purposes. Failures yield nil so the
// caller falls back to ids and positional chapter names.
func lookupBook(books BookSource, bookID string) *entities.Book {
	if books == nil {
		return nil
	}
	book, err := books.Load(bookID)
	if err != nil {
		slog.Debug("export: book unavailable, using id as title", "book_id", bookID, "error", err)
		return nil
	}
	return book
}

func bookTitle(book *entities.Book, bookID string) string {
	if book == nil || book.Metadata.Title == "" {
		return bookID
	}
	return book.Metadata.Title
}
