// Package web holds the HTML templates rendered by the reader.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"
)

//go:embed templates/*.html
var embedded embed.FS

// Names of the page templates.
const (
	LibraryTemplate    = "library.html"
	ReaderTemplate     = "reader.html"
	HighlightsTemplate = "highlights.html"
	LoginTemplate      = "login.html"
)

// Funcs are available to every template.
var Funcs = template.FuncMap{
	// Chapter bodies are sanitized at conversion time.
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

// Templates parses the page templates from dir, or the embedded set when dir
// is empty.
func Templates(dir string) (*template.Template, error) {
	var fsys fs.FS
	pattern := "*.html"
	if dir == "" {
		fsys = embedded
		pattern = "templates/*.html"
	} else {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("templates path: %w", err)
		}
		fsys = os.DirFS(dir)
	}

	tmpl, err := template.New("").Funcs(Funcs).ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
