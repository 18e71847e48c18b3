// Package tags manages the free-form tag lists stored in book snapshots.
package tags

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/library"
)

// MaxTagLength is the longest tag, in characters, that is kept.
const MaxTagLength = 30

// Normalize trims and lowercases tags, dropping empty and overlong ones and
// duplicates. First-seen order is kept.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || utf8.RuneCountInString(tag) > MaxTagLength {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// MigrationResult summarizes an AddToAll run.
type MigrationResult struct {
	Migrated []string
	Skipped  []string
	Failed   map[string]error
}

type Manager struct {
	books *library.Store
}

func NewManager(books *library.Store) *Manager {
	return &Manager{books: books}
}

// Get returns the tags of a book.
func (m *Manager) Get(bookID string) ([]string, error) {
	book, err := m.books.Load(bookID)
	if err != nil {
		return nil, err
	}
	return append([]string{}, book.Metadata.Tags...), nil
}

// Set replaces a book's tags with the normalized form of raw and persists the
// snapshot.
func (m *Manager) Set(bookID string, raw []string) ([]string, error) {
	book, err := m.books.Load(bookID)
	if err != nil {
		return nil, err
	}

	normalized := Normalize(raw)
	updated := *book
	updated.Metadata.Tags = normalized
	if err := m.books.Save(bookID, &updated); err != nil {
		return nil, err
	}
	return normalized, nil
}

// ListAll returns the sorted union of every readable book's tags.
func (m *Manager) ListAll() ([]string, error) {
	ids, err := m.books.IDs()
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	for _, id := range ids {
		book, err := m.books.Load(id)
		if err != nil {
			if !errors.Is(err, library.ErrBookNotFound) {
				slog.Warn("skipping unreadable book while collecting tags", "book_id", id, "error", err)
			}
			continue
		}
		for _, tag := range book.Metadata.Tags {
			set[tag] = struct{}{}
		}
	}

	all := make([]string, 0, len(set))
	for tag := range set {
		all = append(all, tag)
	}
	sort.Strings(all)
	return all, nil
}

// AddToAll appends tag to every book that does not carry it yet.
func (m *Manager) AddToAll(tag string) (*MigrationResult, error) {
	normalized := Normalize([]string{tag})
	if len(normalized) == 0 {
		return nil, fmt.Errorf("invalid tag %q", tag)
	}
	tag = normalized[0]

	ids, err := m.books.IDs()
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{
		Migrated: []string{},
		Skipped:  []string{},
		Failed:   map[string]error{},
	}
	for _, id := range ids {
		book, err := m.books.Load(id)
		if err != nil {
			if !errors.Is(err, library.ErrBookNotFound) {
				result.Failed[id] = err
			}
			continue
		}
		if hasTag(book, tag) {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		if _, err := m.Set(id, append(append([]string{}, book.Metadata.Tags...), tag)); err != nil {
			result.Failed[id] = err
			continue
		}
		result.Migrated = append(result.Migrated, id)
	}
	return result, nil
}

func hasTag(book *entities.Book, tag string) bool {
	for _, t := range book.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
