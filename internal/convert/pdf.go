package convert

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mrlokans/llmreader/internal/entities"
)

var ErrInvalidPDF = errors.New("invalid pdf")

// PDFConverter produces one chapter per page from the extracted page text.
type PDFConverter struct{}

func NewPDFConverter() *PDFConverter {
	return &PDFConverter{}
}

func (c *PDFConverter) Convert(ctx context.Context, srcPath, outDir string) (book *entities.Book, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			book, err = nil, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	f, reader, err := pdf.Open(srcPath)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Join(outDir, imagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create book directory: %w", err)
	}

	book = &entities.Book{
		Metadata: entities.BookMetadata{
			Title:   collapseSpace(reader.Trailer().Key("Info").Key("Title").Text()),
			Authors: nonEmpty([]string{reader.Trailer().Key("Info").Key("Author").Text()}),
			Tags:    []string{},
		},
	}

	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("failed to extract page text", "page", i, "error", err)
			text = ""
		}
		text = strings.TrimSpace(text)

		book.Spine = append(book.Spine, entities.Chapter{
			ID:      fmt.Sprintf("page-%d", i),
			Href:    fmt.Sprintf("page-%d", i),
			Title:   fmt.Sprintf("Page %d", i),
			Content: textToHTML(text),
			Text:    text,
			Order:   len(book.Spine),
		})
	}

	if len(book.Spine) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrInvalidPDF)
	}
	return book, nil
}

// textToHTML wraps blank-line separated blocks of text in paragraphs.
func textToHTML(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(block), "\n", "<br/>"))
		b.WriteString("</p>\n")
	}
	return strings.TrimSpace(b.String())
}
