package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/llmreader/internal/library"
)

// TagsResponse carries a tag list.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

type TagsController struct {
	tags TagManager
}

func NewTagsController(tags TagManager) *TagsController {
	return &TagsController{tags: tags}
}

// GetAllTags returns the sorted union of every book's tags.
// GET /api/tags
func (tc *TagsController) GetAllTags(c *gin.Context) {
	tags, err := tc.tags.ListAll()
	if err != nil {
		respondInternalError(c, err, "Failed to list tags")
		return
	}
	c.JSON(http.StatusOK, TagsResponse{Tags: tags})
}

// GetBookTags returns the tags of one book.
// GET /api/books/:id/tags
func (tc *TagsController) GetBookTags(c *gin.Context) {
	tags, err := tc.tags.Get(c.Param("id"))
	if err != nil {
		tc.respondTagError(c, err, "Failed to load tags")
		return
	}
	c.JSON(http.StatusOK, TagsResponse{Tags: tags})
}

// UpdateBookTags replaces the tags of one book.
// PUT /api/books/:id/tags
func (tc *TagsController) UpdateBookTags(c *gin.Context) {
	var req TagsResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "tags must be a list of strings")
		return
	}

	tags, err := tc.tags.Set(c.Param("id"), req.Tags)
	if err != nil {
		tc.respondTagError(c, err, "Failed to update tags")
		return
	}
	c.JSON(http.StatusOK, TagsResponse{Tags: tags})
}

func (tc *TagsController) respondTagError(c *gin.Context, err error, message string) {
	if errors.Is(err, library.ErrBookNotFound) {
		respondNotFound(c, "Book")
		return
	}
	respondInternalError(c, err, message)
}
