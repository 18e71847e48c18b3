package config

const (
	// DefaultBooksDir is where converted *_data book directories live
	DefaultBooksDir = "."

	// DefaultHighlightsFile is the shared highlights document, relative to the books dir
	DefaultHighlightsFile = "highlights.json"

	// DefaultBookCacheSize is the number of parsed books kept in memory
	DefaultBookCacheSize = 10

	// DefaultCookieName is the session cookie set after a successful login
	DefaultCookieName = "llmreader_auth"
)
