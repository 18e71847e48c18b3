// Package highlights persists reader highlights in a single JSON document at
// the library root.
package highlights

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/utils"
)

var (
	ErrHighlightNotFound = errors.New("highlight not found")
	ErrPersist           = errors.New("failed to save highlights")
)

// NewHighlight carries the client-supplied fields of a highlight.
type NewHighlight struct {
	Text         string `json:"text"`
	ChapterIndex int    `json:"chapter_index"`
	ChapterHref  string `json:"chapter_href"`
	StartOffset  int    `json:"start_offset"`
	EndOffset    int    `json:"end_offset"`
	Note         string `json:"note"`
	Color        string `json:"color"`
}

// ChapterGroup is the highlights of one chapter in creation order.
type ChapterGroup struct {
	ChapterIndex int
	Highlights   []entities.Highlight
}

// Store reads and rewrites the highlight document. Mutations hold a mutex
// across the whole read-modify-write so concurrent requests cannot drop each
// other's changes.
type Store struct {
	path  string
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewStore(path string) *Store {
	return &Store{
		path:  path,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing or unreadable file yields an empty
// document.
func (s *Store) Load() entities.HighlightDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("failed to read highlights", "path", s.path, "error", err)
		}
		return entities.HighlightDocument{}
	}

	doc := entities.HighlightDocument{}
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Error("failed to parse highlights", "path", s.path, "error", err)
		return entities.HighlightDocument{}
	}
	if doc == nil {
		doc = entities.HighlightDocument{}
	}
	for bookID, entry := range doc {
		if entry == nil {
			doc[bookID] = &entities.BookHighlights{Highlights: []entities.Highlight{}}
		} else if entry.Highlights == nil {
			entry.Highlights = []entities.Highlight{}
		}
	}
	return doc
}

// Save replaces the document on disk atomically.
func (s *Store) Save(doc entities.HighlightDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := utils.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// All returns the whole document.
func (s *Store) All() entities.HighlightDocument {
	return s.Load()
}

// ForBook returns the highlights of one book, never nil.
func (s *Store) ForBook(bookID string) []entities.Highlight {
	entry, ok := s.Load()[bookID]
	if !ok || entry == nil {
		return []entities.Highlight{}
	}
	return entry.Highlights
}

// FindByID scans every book for the highlight and returns its owning book,
// the highlight and its position in the book's list.
func (s *Store) FindByID(id string) (string, entities.Highlight, int, error) {
	return findIn(s.Load(), id)
}

func findIn(doc entities.HighlightDocument, id string) (string, entities.Highlight, int, error) {
	for bookID, entry := range doc {
		if entry == nil {
			continue
		}
		for i, h := range entry.Highlights {
			if h.ID == id {
				return bookID, h, i, nil
			}
		}
	}
	return "", entities.Highlight{}, -1, ErrHighlightNotFound
}

// Create appends a highlight to bookID with a fresh id and timestamp.
func (s *Store) Create(bookID string, in NewHighlight) (entities.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := entities.Highlight{
		ID:           s.newID(),
		Text:         in.Text,
		ChapterIndex: in.ChapterIndex,
		ChapterHref:  in.ChapterHref,
		StartOffset:  in.StartOffset,
		EndOffset:    in.EndOffset,
		Timestamp:    s.now().UTC().Format(entities.HighlightTimestampLayout),
		Note:         in.Note,
		Color:        utils.NormalizeHighlightColor(in.Color),
	}

	doc := s.Load()
	entry, ok := doc[bookID]
	if !ok {
		entry = &entities.BookHighlights{Highlights: []entities.Highlight{}}
		doc[bookID] = entry
	}
	entry.Highlights = append(entry.Highlights, h)

	if err := s.Save(doc); err != nil {
		return entities.Highlight{}, err
	}
	return h, nil
}

// UpdateNote sets the note of a highlight. A nil note leaves it unchanged.
func (s *Store) UpdateNote(id string, note *string) (entities.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.Load()
	bookID, _, idx, err := findIn(doc, id)
	if err != nil {
		return entities.Highlight{}, err
	}

	list := doc[bookID].Highlights
	if note != nil {
		list[idx].Note = *note
	}
	if err := s.Save(doc); err != nil {
		return entities.Highlight{}, err
	}
	return list[idx], nil
}

// Delete removes a highlight wherever it is stored.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.Load()
	bookID, _, idx, err := findIn(doc, id)
	if err != nil {
		return err
	}

	entry := doc[bookID]
	entry.Highlights = append(entry.Highlights[:idx], entry.Highlights[idx+1:]...)
	return s.Save(doc)
}

// GroupByChapter buckets highlights by chapter index, ascending, keeping the
// original order inside each chapter.
func GroupByChapter(list []entities.Highlight) []ChapterGroup {
	byChapter := make(map[int][]entities.Highlight)
	for _, h := range list {
		byChapter[h.ChapterIndex] = append(byChapter[h.ChapterIndex], h)
	}

	indexes := make([]int, 0, len(byChapter))
	for idx := range byChapter {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	groups := make([]ChapterGroup, 0, len(indexes))
	for _, idx := range indexes {
		groups = append(groups, ChapterGroup{ChapterIndex: idx, Highlights: byChapter[idx]})
	}
	return groups
}

// BookIDs returns the document's book ids, sorted.
func BookIDs(doc entities.HighlightDocument) []string {
	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
