package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges a mutation and optionally carries the affected highlight.
type SuccessResponse struct {
	Success   bool `json:"success"`
	Highlight any  `json:"highlight,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 carrying message.
func respondInternalError(c *gin.Context, err error, message string) {
	slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message + ": " + err.Error()})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// --- Rendering ---

// wantsJSON reports whether the client prefers JSON over HTML.
func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// renderPage renders a page template, or data as JSON when no templates are
// loaded or the client asked for JSON.
func renderPage(c *gin.Context, tmpl *template.Template, status int, name string, data any) {
	if tmpl == nil || wantsJSON(c) {
		c.JSON(status, data)
		return
	}
	c.HTML(status, name, data)
}
