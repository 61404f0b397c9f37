package tool

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TruncateLines keeps the first maxLines lines and appends a "... (N more lines)" marker.
func TruncateLines(text string, maxLines int) string {
	if maxLines <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	kept := strings.Join(lines[:maxLines], "\n")
	return kept + fmt.Sprintf("\n... (%d more lines)", len(lines)-maxLines)
}

// TruncateBytes keeps at most maxBytes bytes without splitting a UTF-8 sequence.
func TruncateBytes(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	remaining := strings.Count(text[cut:], "\n")
	if remaining > 0 {
		return text[:cut] + fmt.Sprintf("\n... (%d more lines)", remaining)
	}
	return text[:cut] + fmt.Sprintf("\n... (%d more bytes)", len(text)-cut)
}
