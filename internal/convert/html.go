package convert

import (
	"bytes"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// renderChapterBody parses a chapter document and returns the inner HTML of
// its body plus the text of the first heading, if any.
func renderChapterBody(data []byte) (string, string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", "", err
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		body = doc
	}
	cleanNode(body)

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", "", err
		}
	}
	return strings.TrimSpace(buf.String()), firstHeading(body), nil
}

// cleanNode removes executable and styling elements, drops inline event
// handlers and script URLs, and points image references at the book's images
// directory.
func cleanNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && isStripped(c) {
			n.RemoveChild(c)
		} else if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			cleanNode(c)
		}
		c = next
	}
	if n.Type != html.ElementNode {
		return
	}

	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		if isURLAttr(a) && !safeURL(a.Val, isImageRef(n, a)) {
			continue
		}
		if isImageRef(n, a) {
			a.Val = rewriteImageSrc(a.Val)
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}

func isStripped(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Link, atom.Meta, atom.Iframe, atom.Object, atom.Embed:
		return true
	}
	return false
}

func isImageRef(n *html.Node, a html.Attribute) bool {
	switch {
	case n.DataAtom == atom.Img && a.Key == "src":
		return true
	case n.Data == "image" && a.Key == "href":
		return true
	}
	return false
}

func isURLAttr(a html.Attribute) bool {
	key := strings.ToLower(a.Key)
	if a.Namespace == "xlink" && key == "href" {
		return true
	}
	switch key {
	case "href", "src", "xlink:href", "action", "formaction", "poster":
		return true
	}
	return false
}

// safeURL rejects javascript:, vbscript: and data: URLs. Inline data images
// are kept for image references. Browsers ignore whitespace and control
// characters inside the scheme, so those are removed before matching.
func safeURL(val string, image bool) bool {
	normalized := strings.ToLower(strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, val))

	switch {
	case strings.HasPrefix(normalized, "javascript:"), strings.HasPrefix(normalized, "vbscript:"):
		return false
	case strings.HasPrefix(normalized, "data:"):
		return image && strings.HasPrefix(normalized, "data:image/")
	}
	return true
}

func rewriteImageSrc(src string) string {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return src
	}
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return imagesDir + "/" + path.Base(src)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func firstHeading(n *html.Node) string {
	for _, a := range []atom.Atom{atom.H1, atom.H2, atom.H3} {
		if h := findElement(n, a); h != nil {
			if text := collapseSpace(textContent(h)); text != "" {
				return text
			}
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// plainText strips markup from an HTML fragment.
func plainText(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(textContent(n))
	}
	return strings.TrimSpace(b.String())
}
