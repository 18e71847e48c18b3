package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mrlokans/llmreader/internal/entities"
)

const (
	containerPath = "META-INF/container.xml"
	imagesDir     = "images"
	// maxEntrySize caps how much of a single archive member is read.
	maxEntrySize = 64 << 20
)

var (
	ErrInvalidEPUB  = errors.New("invalid epub")
	ErrEntryMissing = errors.New("archive entry not found")
)

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Metadata struct {
		Titles     []string `xml:"title"`
		Creators   []string `xml:"creator"`
		Languages  []string `xml:"language"`
		Publishers []string `xml:"publisher"`
	} `xml:"metadata"`
	Manifest []manifestItem `xml:"manifest>item"`
	Spine    struct {
		Toc      string `xml:"toc,attr"`
		Itemrefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type ncxDocument struct {
	NavPoints []navPoint `xml:"navMap>navPoint"`
}

type navPoint struct {
	Label   string `xml:"navLabel>text"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

// EPUBConverter extracts the reading spine of an EPUB archive.
type EPUBConverter struct{}

func NewEPUBConverter() *EPUBConverter {
	return &EPUBConverter{}
}

// Convert reads srcPath and writes image assets below outDir/images. Chapter
// HTML keeps only the body, without scripts or styles, and image references
// point at images/<name>.
func (c *EPUBConverter) Convert(ctx context.Context, srcPath, outDir string) (*entities.Book, error) {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEPUB, err)
	}
	defer zr.Close()

	archive := newArchive(&zr.Reader)

	opfPath, err := archive.rootfile()
	if err != nil {
		return nil, err
	}
	var pkg opfPackage
	if err := archive.decodeXML(opfPath, &pkg); err != nil {
		return nil, fmt.Errorf("%w: package document: %v", ErrInvalidEPUB, err)
	}

	if err := os.MkdirAll(filepath.Join(outDir, imagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create book directory: %w", err)
	}

	manifest := make(map[string]manifestItem, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		manifest[item.ID] = item
	}
	titles := archive.tocTitles(opfPath, &pkg, manifest)

	book := &entities.Book{
		Metadata: entities.BookMetadata{
			Title:     first(pkg.Metadata.Titles),
			Authors:   nonEmpty(pkg.Metadata.Creators),
			Language:  first(pkg.Metadata.Languages),
			Publisher: first(pkg.Metadata.Publishers),
			Tags:      []string{},
		},
	}

	for _, ref := range pkg.Spine.Itemrefs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, ok := manifest[ref.IDRef]
		if !ok {
			slog.Warn("spine references unknown manifest item", "idref", ref.IDRef)
			continue
		}
		chapterPath := resolveHref(opfPath, item.Href)
		data, err := archive.read(chapterPath)
		if err != nil {
			slog.Warn("skipping unreadable chapter", "href", item.Href, "error", err)
			continue
		}
		content, heading, err := renderChapterBody(data)
		if err != nil {
			slog.Warn("skipping unparsable chapter", "href", item.Href, "error", err)
			continue
		}

		order := len(book.Spine)
		title := titles[chapterPath]
		if title == "" {
			title = heading
		}
		if title == "" {
			title = fmt.Sprintf("Chapter %d", order+1)
		}
		book.Spine = append(book.Spine, entities.Chapter{
			ID:      item.ID,
			Href:    item.Href,
			Title:   title,
			Content: content,
			Text:    toMarkdown(content),
			Order:   order,
		})
	}

	if len(book.Spine) == 0 {
		return nil, fmt.Errorf("%w: no readable chapters", ErrInvalidEPUB)
	}

	for _, item := range pkg.Manifest {
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		if err := archive.extract(resolveHref(opfPath, item.Href), filepath.Join(outDir, imagesDir, path.Base(item.Href))); err != nil {
			slog.Warn("failed to extract image", "href", item.Href, "error", err)
		}
	}

	return book, nil
}

type epubArchive struct {
	files map[string]*zip.File
}

func newArchive(zr *zip.Reader) *epubArchive {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	return &epubArchive{files: files}
}

func (a *epubArchive) open(name string) (io.ReadCloser, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryMissing, name)
	}
	return f.Open()
}

func (a *epubArchive) read(name string) ([]byte, error) {
	rc, err := a.open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxEntrySize))
}

func (a *epubArchive) decodeXML(name string, v any) error {
	data, err := a.read(name)
	if err != nil {
		return err
	}
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return decoder.Decode(v)
}

func (a *epubArchive) extract(name, dest string) error {
	rc, err := a.open(name)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(rc, maxEntrySize)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (a *epubArchive) rootfile() (string, error) {
	var c container
	if err := a.decodeXML(containerPath, &c); err != nil {
		return "", fmt.Errorf("%w: container: %v", ErrInvalidEPUB, err)
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}
	return "", fmt.Errorf("%w: container lists no package document", ErrInvalidEPUB)
}

// tocTitles maps chapter archive paths to table-of-contents labels, preferring
// the NCX and falling back to an EPUB 3 navigation document.
func (a *epubArchive) tocTitles(opfPath string, pkg *opfPackage, manifest map[string]manifestItem) map[string]string {
	titles := make(map[string]string)

	if item, ok := manifest[pkg.Spine.Toc]; ok {
		ncxPath := resolveHref(opfPath, item.Href)
		var doc ncxDocument
		if err := a.decodeXML(ncxPath, &doc); err != nil {
			slog.Debug("ignoring unreadable ncx", "href", item.Href, "error", err)
		} else {
			collectNavPoints(ncxPath, doc.NavPoints, titles)
		}
	}
	if len(titles) > 0 {
		return titles
	}

	for _, item := range pkg.Manifest {
		if !hasProperty(item.Properties, "nav") {
			continue
		}
		navPath := resolveHref(opfPath, item.Href)
		data, err := a.read(navPath)
		if err != nil {
			continue
		}
		collectNavLinks(navPath, data, titles)
	}
	return titles
}

func collectNavPoints(ncxPath string, points []navPoint, titles map[string]string) {
	for _, p := range points {
		target := resolveHref(ncxPath, p.Content.Src)
		label := collapseSpace(p.Label)
		if _, seen := titles[target]; !seen && label != "" {
			titles[target] = label
		}
		collectNavPoints(ncxPath, p.Children, titles)
	}
}

func collectNavLinks(navPath string, data []byte, titles map[string]string) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href := attr(n, "href"); href != "" {
				target := resolveHref(navPath, href)
				label := collapseSpace(textContent(n))
				if _, seen := titles[target]; !seen && label != "" {
					titles[target] = label
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

// resolveHref resolves href relative to the archive member base, dropping any
// fragment.
func resolveHref(base, href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	return path.Clean(path.Join(path.Dir(base), href))
}

func hasProperty(props, want string) bool {
	for _, p := range strings.Fields(props) {
		if p == want {
			return true
		}
	}
	return false
}

func first(values []string) string {
	for _, v := range values {
		if v = collapseSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = collapseSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func toMarkdown(content string) string {
	markdown, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		slog.Debug("markdown conversion failed, using plain text", "error", err)
		return plainText(content)
	}
	return strings.TrimSpace(markdown)
}
