package book

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename makes a title safe to use as a file name. ASCII letters,
// digits and CJK characters are kept; every other rune becomes '_'.
func SanitizeFilename(title string) string {
	title = norm.NFC.String(title)

	var b strings.Builder
	for _, r := range title {
		if isFilenameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}

// ExportFilename returns the sanitized title with the given extension.
func ExportFilename(title, ext string) string {
	return SanitizeFilename(title) + "." + strings.TrimPrefix(ext, ".")
}

func isFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
		return true
	}
	// The prolonged sound mark has Common script but belongs to katakana words.
	return r == 'ー'
}
