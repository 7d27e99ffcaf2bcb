package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// isInvisible reports zero-width and bidirectional control characters that
// recognition engines leave between Tamil glyph clusters.
func isInvisible(r rune) bool {
	switch {
	case r >= 0x200B && r <= 0x200F:
		return true
	case r >= 0x202A && r <= 0x202E:
		return true
	case r >= 0x2060 && r <= 0x2064:
		return true
	case r >= 0x2066 && r <= 0x2069:
		return true
	case r == 0xFEFF:
		return true
	}
	return false
}

// StripInvisible composes text to NFC and removes invisible control
// characters. Line breaks are kept.
func StripInvisible(text string) string {
	return strings.Map(func(r rune) rune {
		if isInvisible(r) {
			return -1
		}
		return r
	}, norm.NFC.String(text))
}

// NormalizeText strips invisible characters, collapses every whitespace run
// (newlines included) to one space and trims both ends.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(StripInvisible(text)), " ")
}
