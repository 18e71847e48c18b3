package highlights

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/llmreader/internal/entities"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "highlights.json"))
	store.now = func() time.Time {
		return time.Date(2024, 3, 5, 10, 30, 0, 123456000, time.FixedZone("CET", 3600))
	}
	n := 0
	store.newID = func() string {
		n++
		return fmt.Sprintf("hl-%d", n)
	}
	return store
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := newTestStore(t)
	doc := store.Load()
	assert.NotNil(t, doc)
	assert.Empty(t, doc)
}

func TestStore_LoadCorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{broken"), 0o644))

	assert.Empty(t, store.Load())
}

func TestStore_LoadNullDocument(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("null"), 0o644))

	doc := store.Load()
	assert.NotNil(t, doc)
	assert.Empty(t, doc)

	h, err := store.Create("dune_data", NewHighlight{Text: "Spice"})
	require.NoError(t, err)
	assert.Equal(t, []entities.Highlight{h}, store.ForBook("dune_data"))
}

func TestStore_Create(t *testing.T) {
	store := newTestStore(t)

	h, err := store.Create("dune_data", NewHighlight{
		Text:         "Fear is the mind-killer.",
		ChapterIndex: 2,
		ChapterHref:  "ch3.xhtml",
		StartOffset:  10,
		EndOffset:    34,
	})
	require.NoError(t, err)

	assert.Equal(t, "hl-1", h.ID)
	assert.Equal(t, "yellow", h.Color)
	assert.Equal(t, "2024-03-05T09:30:00.123456Z", h.Timestamp)
	assert.True(t, strings.HasSuffix(h.Timestamp, "Z"))

	list := store.ForBook("dune_data")
	require.Len(t, list, 1)
	assert.Equal(t, h, list[0])
}

func TestStore_CreateWithRealIDs(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "highlights.json"))

	a, err := store.Create("a_data", NewHighlight{Text: "one", Color: "Blue"})
	require.NoError(t, err)
	b, err := store.Create("b_data", NewHighlight{Text: "two"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 36)
	assert.Equal(t, "blue", a.Color)
	created, ok := a.CreatedAt()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), created, time.Minute)
}

func TestStore_ForBookUnknown(t *testing.T) {
	store := newTestStore(t)
	list := store.ForBook("nobody_data")
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStore_FindByID(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Create("a_data", NewHighlight{Text: "first"})
	require.NoError(t, err)
	second, err := store.Create("b_data", NewHighlight{Text: "second"})
	require.NoError(t, err)
	_, err = store.Create("b_data", NewHighlight{Text: "third"})
	require.NoError(t, err)

	bookID, h, idx, err := store.FindByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "b_data", bookID)
	assert.Equal(t, "second", h.Text)
	assert.Equal(t, 0, idx)

	_, _, _, err = store.FindByID("missing")
	assert.ErrorIs(t, err, ErrHighlightNotFound)
}

func TestStore_UpdateNote(t *testing.T) {
	store := newTestStore(t)
	h, err := store.Create("a_data", NewHighlight{Text: "quote", Note: "old"})
	require.NoError(t, err)

	note := "new thoughts"
	updated, err := store.UpdateNote(h.ID, &note)
	require.NoError(t, err)
	assert.Equal(t, "new thoughts", updated.Note)
	assert.Equal(t, h.Text, updated.Text)
	assert.Equal(t, h.Timestamp, updated.Timestamp)

	unchanged, err := store.UpdateNote(h.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "new thoughts", unchanged.Note)

	_, err = store.UpdateNote("missing", &note)
	assert.ErrorIs(t, err, ErrHighlightNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	a, err := store.Create("a_data", NewHighlight{Text: "a"})
	require.NoError(t, err)
	b, err := store.Create("a_data", NewHighlight{Text: "b"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(a.ID))

	list := store.ForBook("a_data")
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	assert.ErrorIs(t, store.Delete(a.ID), ErrHighlightNotFound)
	assert.ErrorIs(t, store.Delete("never-existed"), ErrHighlightNotFound)
}

func TestStore_SaveFailure(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing-dir", "highlights.json"))

	_, err := store.Create("a_data", NewHighlight{Text: "a"})
	assert.ErrorIs(t, err, ErrPersist)
}

func TestStore_ConcurrentCreatesAreNotLost(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "highlights.json"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Create("a_data", NewHighlight{Text: fmt.Sprintf("h%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.ForBook("a_data"), 20)
}

func TestGroupByChapter(t *testing.T) {
	list := []entities.Highlight{
		{ID: "1", ChapterIndex: 3},
		{ID: "2", ChapterIndex: 0},
		{ID: "3", ChapterIndex: 3},
		{ID: "4", ChapterIndex: 1},
	}

	groups := GroupByChapter(list)
	require.Len(t, groups, 3)
	assert.Equal(t, 0, groups[0].ChapterIndex)
	assert.Equal(t, 1, groups[1].ChapterIndex)
	assert.Equal(t, 3, groups[2].ChapterIndex)
	require.Len(t, groups[2].Highlights, 2)
	assert.Equal(t, "1", groups[2].Highlights[0].ID)
	assert.Equal(t, "3", groups[2].Highlights[1].ID)

	assert.Empty(t, GroupByChapter(nil))
}

func TestBookIDs(t *testing.T) {
	doc := entities.HighlightDocument{"b": {}, "a": {}}
	assert.Equal(t, []string{"a", "b"}, BookIDs(doc))
}
