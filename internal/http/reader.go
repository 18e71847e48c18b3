package http

import (
	"errors"
	"html/template"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/llmreader/internal/entities"
	"github.com/mrlokans/llmreader/internal/library"
	"github.com/mrlokans/llmreader/web"
)

// chapterPage is the reader view of one chapter. PrevIdx and NextIdx are nil
// at the ends of the spine.
type chapterPage struct {
	BasePath     string   `json:"-"`
	BookID       string   `json:"book_id"`
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	ChapterIndex int      `json:"chapter_index"`
	ChapterTitle string   `json:"chapter_title"`
	ChapterHref  string   `json:"chapter_href"`
	Content      string   `json:"content"`
	PrevIdx      *int     `json:"prev_idx"`
	NextIdx      *int     `json:"next_idx"`
	Chapters     []string `json:"chapters"`
}

type ReaderController struct {
	books     BookStore
	templates *template.Template
	basePath  string
}

func NewReaderController(books BookStore, templates *template.Template, basePath string) *ReaderController {
	return &ReaderController{
		books:     books,
		templates: templates,
		basePath:  basePath,
	}
}

// ReadFirstChapter renders chapter 0.
// GET /read/:book_id
func (rc *ReaderController) ReadFirstChapter(c *gin.Context) {
	rc.renderChapter(c, c.Param("book_id"), 0)
}

// ReadChapter renders one chapter of a book.
// GET /read/:book_id/:chapter_index
func (rc *ReaderController) ReadChapter(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("chapter_index"))
	if err != nil {
		respondBadRequest(c, "invalid chapter index")
		return
	}
	rc.renderChapter(c, c.Param("book_id"), index)
}

func (rc *ReaderController) renderChapter(c *gin.Context, bookID string, index int) {
	book, ok := rc.loadChapter(c, bookID, index)
	if !ok {
		return
	}

	chapter := book.Spine[index]
	page := chapterPage{
		BasePath:     rc.basePath,
		BookID:       bookID,
		Title:        book.Metadata.Title,
		Author:       book.AuthorLine(),
		ChapterIndex: index,
		ChapterTitle: book.ChapterTitle(index),
		ChapterHref:  chapter.Href,
		Content:      chapter.Content,
		Chapters:     make([]string, len(book.Spine)),
	}
	if index > 0 {
		prev := index - 1
		page.PrevIdx = &prev
	}
	if index < len(book.Spine)-1 {
		next := index + 1
		page.NextIdx = &next
	}
	for i := range book.Spine {
		page.Chapters[i] = book.ChapterTitle(i)
	}

	renderPage(c, rc.templates, http.StatusOK, web.ReaderTemplate, page)
}

// ChapterText returns a chapter as Markdown.
// GET /api/books/:id/chapters/:chapter_index/text
func (rc *ReaderController) ChapterText(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("chapter_index"))
	if err != nil {
		respondBadRequest(c, "invalid chapter index")
		return
	}

	book, ok := rc.loadChapter(c, c.Param("id"), index)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(book.Spine[index].Text))
}

// ServeImage serves an image asset of a book.
// GET /read/:book_id/images/:name
func (rc *ReaderController) ServeImage(c *gin.Context) {
	path, ok := rc.books.ImagePath(c.Param("book_id"), c.Param("name"))
	if !ok {
		respondNotFound(c, "Image")
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		respondNotFound(c, "Image")
		return
	}
	c.File(path)
}

// loadChapter loads a book and checks index against its spine, answering
// the request itself on failure.
func (rc *ReaderController) loadChapter(c *gin.Context, bookID string, index int) (*entities.Book, bool) {
	book, err := rc.books.Load(bookID)
	if err != nil {
		if errors.Is(err, library.ErrBookNotFound) {
			respondNotFound(c, "Book")
		} else {
			respondInternalError(c, err, "Failed to load book")
		}
		return nil, false
	}

	if index < 0 || index >= len(book.Spine) {
		respondNotFound(c, "Chapter")
		return nil, false
	}
	return book, true
}
