// Package library manages converted books on disk.
//
// Every book lives in its own "<name>_data" directory under the library root,
// holding a book.json snapshot and an images/ folder. Store loads snapshots
// through a bounded LRU cache; Ingestor turns uploaded EPUB/PDF files into new
// book directories.
package library
