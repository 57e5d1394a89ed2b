package extractor

import (
	"unicode"
	"unicode/utf8"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// NewExtractedText tags text with its provenance and quality signals.
func NewExtractedText(text string, source models.Provenance) models.ExtractedText {
	return models.ExtractedText{
		Text:    text,
		Source:  source,
		Length:  utf8.RuneCountInString(text),
		Quality: textQuality(text),
	}
}

// textQuality returns the ratio of basic readable characters (ASCII letters,
// digits, whitespace, common punctuation and currency signs) to all characters.
// unicode.IsLetter is deliberately not used: it accepts the accented garbage
// produced by identity-encoded fonts.
func textQuality(text string) float64 {
	total := 0
	readable := 0
	for _, r := range text {
		total++
		if isReadable(r) {
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func isReadable(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	}
	switch r {
	case '.', ',', '-', '/', ':', ';', '(', ')', '\'', '"', '£', '$', '€', '%',
		'&', '@', '#', '!', '?', '+', '=', '*':
		return true
	}
	return false
}
