package demo

import (
	"fmt"
	"html"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/highlights"
	"github.com/mrlokans/llmreader/internal/library"
)

// HighlightCreator stores seeded highlights.
type HighlightCreator interface {
	Create(bookID string, in highlights.NewHighlight) (entities.Highlight, error)
}

// SeedResult reports what Seed added.
type SeedResult struct {
	BooksAdded      int
	BooksSkipped    int
	HighlightsAdded int
}

type sampleChapter struct {
	Title      string
	Paragraphs []string
}

type sampleHighlight struct {
	Chapter int
	Text    string
	Note    string
	Color   string
}

type sampleBook struct {
	File       string
	Title      string
	Author     string
	Tags       []string
	Chapters   []sampleChapter
	Highlights []sampleHighlight
}

// Seed writes a small library of public domain excerpts with tags and
// highlights. Books whose directory already exists are left alone.
func Seed(books *library.Store, store HighlightCreator, now time.Time) (*SeedResult, error) {
	result := &SeedResult{}

	for _, sample := range publicDomainBooks() {
		bookID := library.BookIDFor(sample.File)
		if books.Exists(bookID) {
			result.BooksSkipped++
			continue
		}

		book := sample.build(now)
		if err := os.MkdirAll(books.BookDir(bookID), 0o755); err != nil {
			return result, fmt.Errorf("create %s: %w", bookID, err)
		}
		if err := books.Save(bookID, book); err != nil {
			return result, err
		}
		result.BooksAdded++

		for _, h := range sample.Highlights {
			chapter := book.Spine[h.Chapter]
			start := strings.Index(chapter.Text, h.Text)
			if start < 0 {
				slog.Warn("demo highlight not found in chapter", "book_id", bookID, "chapter", h.Chapter)
				continue
			}
			if _, err := store.Create(bookID, highlights.NewHighlight{
				Text:         h.Text,
				ChapterIndex: h.Chapter,
				ChapterHref:  chapter.Href,
				StartOffset:  start,
				EndOffset:    start + len(h.Text),
				Note:         h.Note,
				Color:        h.Color,
			}); err != nil {
				return result, err
			}
			result.HighlightsAdded++
		}
	}

	return result, nil
}

func (s sampleBook) build(now time.Time) *entities.Book {
	book := &entities.Book{
		SchemaVersion: entities.BookSchemaVersion,
		Metadata: entities.BookMetadata{
			Title:    s.Title,
			Authors:  []string{s.Author},
			Language: "en",
			Tags:     append([]string{}, s.Tags...),
		},
		SourceFile:  s.File,
		ProcessedAt: now.UTC(),
	}

	for i, ch := range s.Chapters {
		var content strings.Builder
		fmt.Fprintf(&content, "<h2>%s</h2>\n", html.EscapeString(ch.Title))
		for _, p := range ch.Paragraphs {
			fmt.Fprintf(&content, "<p>%s</p>\n", html.EscapeString(p))
		}
		book.Spine = append(book.Spine, entities.Chapter{
			ID:      fmt.Sprintf("chapter-%d", i+1),
			Href:    fmt.Sprintf("chapter-%d.xhtml", i+1),
			Title:   ch.Title,
			Content: content.String(),
			Text:    "## " + ch.Title + "\n\n" + strings.Join(ch.Paragraphs, "\n\n"),
			Order:   i,
		})
	}
	return book
}

func publicDomainBooks() []sampleBook {
	return []sampleBook{
		{
			File:   "Meditations.epub",
			Title:  "Meditations",
			Author: "Marcus Aurelius",
			Tags:   []string{"philosophy", "classic"},
			Chapters: []sampleChapter{
				{
					Title: "Book Two",
					Paragraphs: []string{
						"Begin the morning by saying to thyself, I shall meet with the busy-body, the ungrateful, arrogant, deceitful, envious, unsocial.",
						"Though thou shouldst be going to live three thousand years, and as many times ten thousand years, still remember that no man loses any other life than this which he now lives.",
					},
				},
				{
					Title: "Book Four",
					Paragraphs: []string{
						"Men seek retreats for themselves, houses in the country, sea-shores, and mountains. But it is in thy power whenever thou shalt choose to retire into thyself.",
						"The universe is transformation: life is opinion.",
					},
				},
			},
			Highlights: []sampleHighlight{
				{Chapter: 0, Text: "no man loses any other life than this which he now lives", Note: "The present is all anyone has.", Color: "yellow"},
				{Chapter: 1, Text: "The universe is transformation: life is opinion.", Color: "blue"},
			},
		},
		{
			File:   "Pride and Prejudice.epub",
			Title:  "Pride and Prejudice",
			Author: "Jane Austen",
			Tags:   []string{"fiction", "classic"},
			Chapters: []sampleChapter{
				{
					Title: "Chapter 1",
					Paragraphs: []string{
						"It is a truth universally acknowledged, that a single man in possession of a good fortune, must be in want of a wife.",
						"However little known the feelings or views of such a man may be on his first entering a neighbourhood, this truth is so well fixed in the minds of the surrounding families, that he is considered the rightful property of some one or other of their daughters.",
					},
				},
				{
					Title: "Chapter 11",
					Paragraphs: []string{
						"I declare after all there is no enjoyment like reading! How much sooner one tires of any thing than of a book!",
					},
				},
			},
			Highlights: []sampleHighlight{
				{Chapter: 0, Text: "It is a truth universally acknowledged", Color: "pink"},
				{Chapter: 1, Text: "there is no enjoyment like reading!", Note: "Caroline Bingley, not quite sincerely.", Color: "green"},
			},
		},
		{
			File:   "On the Origin of Species.pdf",
			Title:  "On the Origin of Species",
			Author: "Charles Darwin",
			Tags:   []string{"science", "classic"},
			Chapters: []sampleChapter{
				{
					Title: "Page 1",
					Paragraphs: []string{
						"When on board H.M.S. Beagle, as naturalist, I was much struck with certain facts in the distribution of the inhabitants of South America.",
					},
				},
				{
					Title: "Page 2",
					Paragraphs: []string{
						"There is grandeur in this view of life, with its several powers, having been originally breathed into a few forms or into one.",
					},
				},
			},
			Highlights: []sampleHighlight{
				{Chapter: 1, Text: "There is grandeur in this view of life", Color: "yellow"},
			},
		},
	}
}
