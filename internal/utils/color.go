package utils

import "strings"

// DefaultHighlightColor is used for highlights created without a color.
const DefaultHighlightColor = "yellow"

// NormalizeHighlightColor lowercases and trims a reader color name,
// defaulting to yellow.
func NormalizeHighlightColor(color string) string {
	color = strings.ToLower(strings.TrimSpace(color))
	if color == "" {
		return DefaultHighlightColor
	}
	return color
}

// ColorToCalloutType maps highlight colors to Obsidian callout types.
// Default return is "quote" for unknown colors.
func ColorToCalloutType(color string) string {
	colorMapping := map[string]string{
		"yellow": "quote",   // Yellow highlights -> quotes
		"green":  "note",    // Green highlights -> notes
		"red":    "warning", // Red highlights -> warnings
		"pink":   "warning",
		"blue":   "info", // Blue highlights -> info
		"purple": "tip",  // Purple highlights -> tips
	}

	if calloutType, ok := colorMapping[NormalizeHighlightColor(color)]; ok {
		return calloutType
	}
	return "quote"
}
