// Package convert turns EPUB and PDF files into the chapter layout the
// reader serves: a book snapshot plus extracted image assets.
package convert
