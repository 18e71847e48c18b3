package http

import (
	"html/template"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/web"
)

type libraryPage struct {
	BasePath string                 `json:"-"`
	Books    []entities.BookSummary `json:"books"`
	AllTags  []string               `json:"all_tags"`
}

type LibraryController struct {
	books     BookStore
	templates *template.Template
	basePath  string
}

func NewLibraryController(books BookStore, templates *template.Template, basePath string) *LibraryController {
	return &LibraryController{
		books:     books,
		templates: templates,
		basePath:  basePath,
	}
}

// Index lists every readable book with the union of their tags.
// GET /
func (lc *LibraryController) Index(c *gin.Context) {
	books, err := lc.books.List()
	if err != nil {
		respondInternalError(c, err, "Failed to list library")
		return
	}

	renderPage(c, lc.templates, http.StatusOK, web.LibraryTemplate, libraryPage{
		BasePath: lc.basePath,
		Books:    books,
		AllTags:  collectTags(books),
	})
}

// collectTags gathers the sorted set of tags across books.
func collectTags(books []entities.BookSummary) []string {
	set := make(map[string]struct{})
	for _, book := range books {
		for _, tag := range book.Tags {
			set[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
