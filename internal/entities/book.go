package entities

import (
	"strings"
	"time"
)

// BookSchemaVersion is the current version of the on-disk book snapshot.
// Version 1 snapshots predate tagging and carry no tag list.
const BookSchemaVersion = 2

type BookMetadata struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Language  string   `json:"language,omitempty"`
	Publisher string   `json:"publisher,omitempty"`
	Tags      []string `json:"tags"`
}

// Chapter is one entry of a book's reading spine.
type Chapter struct {
	ID      string `json:"id"`
	Href    string `json:"href"`
	Title   string `json:"title"`
	Content string `json:"content"` // sanitized body HTML
	Text    string `json:"text"`    // Markdown rendition of Content
	Order   int    `json:"order"`
}

type Book struct {
	SchemaVersion int          `json:"schema_version"`
	Metadata      BookMetadata `json:"metadata"`
	Spine         []Chapter    `json:"spine"`
	SourceFile    string       `json:"source_file,omitempty"`
	ProcessedAt   time.Time    `json:"processed_at"`
}

// AuthorLine joins the book's authors for display.
func (b *Book) AuthorLine() string {
	return strings.Join(b.Metadata.Authors, ", ")
}

// ChapterTitle returns the spine title at index, or a positional fallback
// when the index is outside the spine.
func (b *Book) ChapterTitle(index int) string {
	if b != nil && index >= 0 && index < len(b.Spine) {
		return b.Spine[index].Title
	}
	return fmtChapterFallback(index)
}

// BookSummary is the library listing view of a book.
type BookSummary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Chapters int      `json:"chapters"`
	Tags     []string `json:"tags"`
}

func NewBookSummary(id string, book *Book) BookSummary {
	tags := book.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}
	return BookSummary{
		ID:       id,
		Title:    book.Metadata.Title,
		Author:   book.AuthorLine(),
		Chapters: len(book.Spine),
		Tags:     tags,
	}
}
