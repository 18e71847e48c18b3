package exporters

import "github.com/mrlokans/llmreader/internal/entities"

// BookSource resolves book ids to books for titles and chapter names.
type BookSource interface {
	Load(bookID string) (*entities.Book, error)
}

type ExportResult struct {
	BooksProcessed      int `json:"books_processed"`
	HighlightsProcessed int `json:"highlights_processed"`
	BooksFailed         int `json:"books_failed"`
}
