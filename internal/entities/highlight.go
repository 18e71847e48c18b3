package entities

import (
	"fmt"
	"time"
)

// HighlightTimestampLayout renders UTC times the way stored highlights carry
// them: ISO-8601 with microseconds and a trailing "Z".
const HighlightTimestampLayout = "2006-01-02T15:04:05.000000Z"

type Highlight struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	ChapterIndex int    `json:"chapter_index"`
	ChapterHref  string `json:"chapter_href"`
	StartOffset  int    `json:"start_offset"`
	EndOffset    int    `json:"end_offset"`
	Timestamp    string `json:"timestamp"`
	Note         string `json:"note"`
	Color        string `json:"color"`
}

// CreatedAt parses Timestamp. The boolean is false for missing or malformed values.
func (h Highlight) CreatedAt() (time.Time, bool) {
	if h.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, h.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type BookHighlights struct {
	Highlights []Highlight `json:"highlights"`
}

// HighlightDocument maps a book ID to its highlights. Highlight IDs are unique
// across the whole document.
type HighlightDocument map[string]*BookHighlights

// Count returns the number of highlights across all books.
func (d HighlightDocument) Count() int {
	n := 0
	for _, entry := range d {
		if entry != nil {
			n += len(entry.Highlights)
		}
	}
	return n
}

func fmtChapterFallback(index int) string {
	return fmt.Sprintf("Chapter %d", index+1)
}
