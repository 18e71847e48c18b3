package http

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/llmreader/web"
)

func TestLibraryController_Index(t *testing.T) {
	env := newTestEnv(t)
	env.addBook(t, "dune_data", "Dune", "One", "Two")
	env.addBook(t, "emma_data", "Emma", "One")
	env.sendJSON(http.MethodPut, "/api/books/dune_data/tags", `{"tags": ["sci-fi"]}`)
	env.sendJSON(http.MethodPut, "/api/books/emma_data/tags", `{"tags": ["classic", "sci-fi"]}`)

	// A directory without a readable snapshot is skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(env.root, "broken_data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "broken_data", "book.json"), []byte("{"), 0o644))

	var page libraryPage
	rr := env.getJSON(t, "/", &page)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, page.Books, 2)
	assert.Equal(t, "Dune", page.Books[0].Title)
	assert.Equal(t, "Frank Herbert", page.Books[0].Author)
	assert.Equal(t, 2, page.Books[0].Chapters)
	assert.Equal(t, []string{"classic", "sci-fi"}, page.AllTags)
}

func TestLibraryController_EmptyLibraryHTML(t *testing.T) {
	tmpl, err := web.Templates("")
	require.NoError(t, err)
	env := newTestEnv(t, func(cfg *RouterConfig) { cfg.Templates = tmpl })

	rr := env.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No books yet")
}
