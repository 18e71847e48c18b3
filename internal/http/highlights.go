package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/exporters"
	"github.com/mrlokans/llmreader/internal/highlights"
	"github.com/mrlokans/llmreader/internal/library"
	"github.com/mrlokans/llmreader/web"
)

// BookHighlightsResponse carries the highlights of one book.
type BookHighlightsResponse struct {
	Highlights []entities.Highlight `json:"highlights"`
}

// updateHighlightRequest only carries the note; a missing note leaves it unchanged.
type updateHighlightRequest struct {
	Note *string `json:"note"`
}

type highlightsPage struct {
	BasePath string           `json:"-"`
	Books    []bookHighlights `json:"books"`
}

type bookHighlights struct {
	BookID          string              `json:"book_id"`
	Title           string              `json:"title"`
	Author          string              `json:"author"`
	TotalHighlights int                 `json:"total_highlights"`
	Chapters        []chapterHighlights `json:"chapters"`
}

type chapterHighlights struct {
	BookID     string               `json:"-"`
	Index      int                  `json:"index"`
	Title      string               `json:"title"`
	Highlights []entities.Highlight `json:"highlights"`
}

type HighlightsController struct {
	highlights HighlightStore
	books      BookStore
	templates  *template.Template
	basePath   string
	now        func() time.Time
}

func NewHighlightsController(store HighlightStore, books BookStore, templates *template.Template, basePath string) *HighlightsController {
	return &HighlightsController{
		highlights: store,
		books:      books,
		templates:  templates,
		basePath:   basePath,
		now:        time.Now,
	}
}

// GetAllHighlights returns the whole highlight document.
// GET /api/highlights
func (hc *HighlightsController) GetAllHighlights(c *gin.Context) {
	c.JSON(http.StatusOK, hc.highlights.All())
}

// GetBookHighlights returns the highlights of one book.
// GET /api/books/:id/highlights
func (hc *HighlightsController) GetBookHighlights(c *gin.Context) {
	c.JSON(http.StatusOK, BookHighlightsResponse{Highlights: hc.highlights.ForBook(c.Param("id"))})
}

// CreateHighlight adds a highlight to an existing book.
// POST /api/books/:id/highlights
func (hc *HighlightsController) CreateHighlight(c *gin.Context) {
	bookID := c.Param("id")
	if _, err := hc.books.Load(bookID); err != nil {
		if errors.Is(err, library.ErrBookNotFound) {
			respondNotFound(c, "Book")
		} else {
			respondInternalError(c, err, "Failed to load book")
		}
		return
	}

	var req highlights.NewHighlight
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid highlight body")
		return
	}

	h, err := hc.highlights.Create(bookID, req)
	if err != nil {
		respondInternalError(c, err, "Failed to create highlight")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Highlight: h})
}

// UpdateHighlight edits the note of a highlight.
// PUT /api/highlights/:id
func (hc *HighlightsController) UpdateHighlight(c *gin.Context) {
	var req updateHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid highlight body")
		return
	}

	h, err := hc.highlights.UpdateNote(c.Param("id"), req.Note)
	if err != nil {
		if errors.Is(err, highlights.ErrHighlightNotFound) {
			respondNotFound(c, "Highlight")
			return
		}
		respondInternalError(c, err, "Failed to update highlight")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Highlight: h})
}

// DeleteHighlight removes a highlight.
// DELETE /api/highlights/:id
func (hc *HighlightsController) DeleteHighlight(c *gin.Context) {
	if err := hc.highlights.Delete(c.Param("id")); err != nil {
		if errors.Is(err, highlights.ErrHighlightNotFound) {
			respondNotFound(c, "Highlight")
			return
		}
		respondInternalError(c, err, "Failed to delete highlight")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ExportMarkdown downloads every highlight as one Obsidian-style document.
// GET /api/highlights/export/markdown
func (hc *HighlightsController) ExportMarkdown(c *gin.Context) {
	markdown := exporters.GenerateMarkdown(hc.highlights.All(), hc.books)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exporters.ExportFilename(hc.now())))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(markdown))
}

// HighlightsPage renders highlights grouped by book and chapter. Books that
// no longer load are left out.
// GET /highlights
func (hc *HighlightsController) HighlightsPage(c *gin.Context) {
	doc := hc.highlights.All()

	page := highlightsPage{BasePath: hc.basePath, Books: []bookHighlights{}}
	for _, bookID := range highlights.BookIDs(doc) {
		entry := doc[bookID]
		if entry == nil || len(entry.Highlights) == 0 {
			continue
		}
		book, err := hc.books.Load(bookID)
		if err != nil {
			continue
		}

		view := bookHighlights{
			BookID:          bookID,
			Title:           book.Metadata.Title,
			Author:          book.AuthorLine(),
			TotalHighlights: len(entry.Highlights),
		}
		for _, group := range highlights.GroupByChapter(entry.Highlights) {
			view.Chapters = append(view.Chapters, chapterHighlights{
				BookID:     bookID,
				Index:      group.ChapterIndex,
				Title:      book.ChapterTitle(group.ChapterIndex),
				Highlights: group.Highlights,
			})
		}
		page.Books = append(page.Books, view)
	}

	renderPage(c, hc.templates, http.StatusOK, web.HighlightsTemplate, page)
}
