package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename sanitizes a note filename for Obsidian compatibility.
// It removes or replaces characters that are invalid in filenames or
// problematic in Obsidian (slashes, colons, quotes, hashtags, brackets, etc.)
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	// Obsidian-specific sanitization
	filename = strings.ReplaceAll(filename, "#", "")
	filename = strings.ReplaceAll(filename, "[", "(")
	filename = strings.ReplaceAll(filename, "]", ")")

	// Limit length (most filesystems support 255, but leave room for extension)
	if len(filename) > 200 {
		filename = strings.TrimSpace(filename[:200])
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

// SanitizeUploadName reduces an uploaded file name to its base name made of
// ASCII letters, digits, '-', '_' and '.', without leading or trailing dots.
// An empty result becomes "upload"+fallbackExt, and a name without an
// extension gets fallbackExt appended.
func SanitizeUploadName(filename, fallbackExt string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}

	var b strings.Builder
	for _, r := range base {
		if isUploadNameRune(r) {
			b.WriteRune(r)
		}
	}

	safe := strings.Trim(b.String(), ".")
	if safe == "" {
		safe = "upload" + fallbackExt
	}
	if filepath.Ext(safe) == "" {
		safe += fallbackExt
	}
	return safe
}

func isUploadNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.':
		return true
	}
	return false
}
