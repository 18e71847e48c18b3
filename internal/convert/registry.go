package convert

import "github.com/mrlokans/llmreader/internal/library"

// Converters returns the built-in converters keyed by file extension.
func Converters() map[string]library.Converter {
	return map[string]library.Converter{
		".epub": NewEPUBConverter(),
		".pdf":  NewPDFConverter(),
	}
}
