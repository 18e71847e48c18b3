package exporters

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/highlights"
	"github.com/mrlokans/llmreader/internal/utils"
)

// noteFrontmatter is the YAML header of a per-book vault note.
type noteFrontmatter struct {
	Title       string   `yaml:"title"`
	Authors     []string `yaml:"authors,omitempty"`
	BookID      string   `yaml:"book_id"`
	ContentType string   `yaml:"content_type"`
	Highlights  int      `yaml:"highlights"`
	ExportedAt  string   `yaml:"exported_at"`
	Tags        []string `yaml:"tags"`
}

// GenerateBookNote renders one book's highlights as a standalone note with YAML
// frontmatter. Highlights become callouts typed by their color. book may be
// nil when the snapshot is unavailable.
func GenerateBookNote(bookID string, book *entities.Book, list []entities.Highlight, now time.Time) (string, error) {
	fm := noteFrontmatter{
		Title:       bookTitle(book, bookID),
		BookID:      bookID,
		ContentType: "book_highlights",
		Highlights:  len(list),
		ExportedAt:  now.UTC().Format("2006-01-02"),
		Tags:        []string{"highlights", "books"},
	}
	if book != nil {
		fm.Authors = book.Metadata.Authors
		fm.Tags = append(fm.Tags, book.Metadata.Tags...)
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n", fm.Title)

	for _, group := range highlights.GroupByChapter(list) {
		fmt.Fprintf(&b, "\n## %s\n", book.ChapterTitle(group.ChapterIndex))

		for _, h := range group.Highlights {
			fmt.Fprintf(&b, "\n> [!%s]\n", utils.ColorToCalloutType(h.Color))
			for _, line := range strings.Split(strings.TrimSpace(h.Text), "\n") {
				fmt.Fprintf(&b, "> %s\n", line)
			}
			if note := strings.TrimSpace(h.Note); note != "" {
				fmt.Fprintf(&b, ">\n> **Note:** %s\n", strings.ReplaceAll(note, "\n", "\n> "))
			}
			if h.ID != "" {
				fmt.Fprintf(&b, "^%s\n", h.ID)
			}
		}
	}

	return b.String(), nil
}
