package extractor

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/models"
	"golang.org/x/text/encoding/charmap"
)

// Limits for the raw byte scan.
const (
	rawScanMaxBytes = 50000
	rawScanMaxChars = 5000
	rawScanMinRun   = 10
)

// RawScanPlaceholder is returned when the raw scan finds no printable runs.
const RawScanPlaceholder = "No readable text could be extracted from this document."

// printableRun matches runs of letters, digits, spaces, common punctuation
// and currency symbols.
var printableRun = regexp.MustCompile(`[A-Za-z0-9 .,:;!?'"()\[\]/&%#@*+=_\-$£€¥]{10,}`)

// RawScanner is the last-resort extractor: it reads the leading bytes of the
// document as single-byte characters and keeps printable runs. It never
// fails and never returns empty text.
type RawScanner struct{}

// Scan extracts printable runs from data.
func (RawScanner) Scan(data []byte) models.ExtractedText {
	if len(data) > rawScanMaxBytes {
		data = data[:rawScanMaxBytes]
	}

	// Windows-1252 maps every byte to one character and covers £, € and ¥.
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		decoded = data
	}

	var runs []string
	for _, m := range printableRun.FindAllString(string(decoded), -1) {
		m = strings.TrimSpace(m)
		if len([]rune(m)) >= rawScanMinRun {
			runs = append(runs, m)
		}
	}

	text := strings.Join(runs, " ")
	if r := []rune(text); len(r) > rawScanMaxChars {
		text = string(r[:rawScanMaxChars])
	}
	if text == "" {
		text = RawScanPlaceholder
	}
	return NewExtractedText(text, models.SourceRawScan)
}
