package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/utils"
)

const (
	// SnapshotFileName is the per-book metadata and spine snapshot.
	SnapshotFileName = "book.json"
	// ImagesDirName holds a book's extracted image assets.
	ImagesDirName = "images"
	// BookDirSuffix marks directories that contain converted books.
	BookDirSuffix = "_data"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrUnsupportedSchema = errors.New("unsupported book snapshot schema")
)

// Store loads and saves book snapshots below a library root. Loaded books are
// kept in an LRU cache that is dropped wholesale on any write.
type Store struct {
	root  string
	cache *lru.Cache[string, *entities.Book]
}

// NewStore creates a store rooted at dir caching up to cacheSize books.
func NewStore(dir string, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = 10
	}
	cache, err := lru.New[string, *entities.Book](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create book cache: %w", err)
	}
	return &Store{root: dir, cache: cache}, nil
}

// Root returns the library root directory.
func (s *Store) Root() string {
	return s.root
}

// Load returns the book stored in the bookID directory. A directory without a
// snapshot, or an ID that is not a plain directory name, yields ErrBookNotFound.
// Callers must treat the returned book as read-only; it is shared with the cache.
func (s *Store) Load(bookID string) (*entities.Book, error) {
	if !validBookID(bookID) {
		return nil, ErrBookNotFound
	}
	if book, ok := s.cache.Get(bookID); ok {
		return book, nil
	}

	data, err := os.ReadFile(s.snapshotPath(bookID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("read book %s: %w", bookID, err)
	}

	book, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", bookID, err)
	}

	s.cache.Add(bookID, book)
	return book, nil
}

// Save writes the full snapshot for bookID, replacing any previous one, and
// invalidates the cache. The book directory must already exist.
func (s *Store) Save(bookID string, book *entities.Book) error {
	if !validBookID(bookID) {
		return fmt.Errorf("save book: invalid id %q", bookID)
	}
	data, err := encodeSnapshot(book)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(s.snapshotPath(bookID), data, 0o644); err != nil {
		return fmt.Errorf("save book %s: %w", bookID, err)
	}
	s.Invalidate()
	return nil
}

// Invalidate drops every cached book.
func (s *Store) Invalidate() {
	s.cache.Purge()
}

// Exists reports whether a directory for bookID is present, whether or not it
// holds a loadable snapshot.
func (s *Store) Exists(bookID string) bool {
	if !validBookID(bookID) {
		return false
	}
	_, err := os.Stat(s.BookDir(bookID))
	return err == nil
}

// IDs lists book directory names under the root, sorted.
func (s *Store) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list library: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && IsBookDirName(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// List loads every book in the library. Books that fail to load are logged
// and skipped.
func (s *Store) List() ([]entities.BookSummary, error) {
	ids, err := s.IDs()
	if err != nil {
		return nil, err
	}

	books := make([]entities.BookSummary, 0, len(ids))
	for _, id := range ids {
		book, err := s.Load(id)
		if err != nil {
			if !errors.Is(err, ErrBookNotFound) {
				slog.Warn("skipping unreadable book", "book_id", id, "error", err)
			}
			continue
		}
		books = append(books, entities.NewBookSummary(id, book))
	}
	return books, nil
}

// BookDir returns the directory for bookID.
func (s *Store) BookDir(bookID string) string {
	return filepath.Join(s.root, bookID)
}

// ImagePath resolves an image of a book. Both parts are reduced to their base
// names so the result cannot escape the book's images directory.
func (s *Store) ImagePath(bookID, name string) (string, bool) {
	safeBook := filepath.Base(bookID)
	safeName := filepath.Base(name)
	if !validBookID(safeBook) || safeName == "." || safeName == ".." || safeName == "/" {
		return "", false
	}
	return filepath.Join(s.root, safeBook, ImagesDirName, safeName), true
}

func (s *Store) snapshotPath(bookID string) string {
	return filepath.Join(s.root, bookID, SnapshotFileName)
}

// IsBookDirName reports whether a directory name follows the book layout.
func IsBookDirName(name string) bool {
	return strings.HasSuffix(name, BookDirSuffix) && validBookID(name)
}

// validBookID accepts single, non-hidden path elements.
func validBookID(id string) bool {
	if id == "" || strings.HasPrefix(id, ".") {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && filepath.Base(id) == id
}
