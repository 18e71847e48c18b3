package library

import (
	"encoding/json"
	"fmt"

	"github.com/mrlokans/llmreader/internal/entities"
)

// decodeSnapshot parses a book.json payload and migrates it to the current
// schema version.
func decodeSnapshot(data []byte) (*entities.Book, error) {
	var book entities.Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := migrate(&book); err != nil {
		return nil, err
	}
	return &book, nil
}

// migrate upgrades an older snapshot in place. Snapshots without a
// schema_version are treated as version 1.
func migrate(book *entities.Book) error {
	if book.SchemaVersion == 0 {
		book.SchemaVersion = 1
	}
	if book.SchemaVersion > entities.BookSchemaVersion {
		return fmt.Errorf("%w: version %d", ErrUnsupportedSchema, book.SchemaVersion)
	}

	// v1 -> v2: tag lists were introduced
	if book.SchemaVersion < 2 {
		if book.Metadata.Tags == nil {
			book.Metadata.Tags = []string{}
		}
		book.SchemaVersion = 2
	}

	if book.Metadata.Tags == nil {
		book.Metadata.Tags = []string{}
	}
	if book.Metadata.Authors == nil {
		book.Metadata.Authors = []string{}
	}
	return nil
}

func encodeSnapshot(book *entities.Book) ([]byte, error) {
	book.SchemaVersion = entities.BookSchemaVersion
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}
