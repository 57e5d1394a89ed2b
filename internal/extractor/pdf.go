package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/ledongthuc/pdf"
)

// PageBreak separates page texts in joined output.
const PageBreak = "\n--- PAGE BREAK ---\n"

// DigitalExtractor reads the embedded text layer of a PDF.
type DigitalExtractor struct{}

// Extract returns the document's embedded text. A scanned document yields an
// empty or short text with a nil error. A buffer that is not a readable PDF
// also yields empty text; the returned error (wrapping ErrMalformedInput) is
// informational and callers are expected to carry on with the empty text.
func (DigitalExtractor) Extract(_ context.Context, doc models.Document) (models.ExtractedText, error) {
	pages, err := extractPages(doc.Data)
	if err != nil {
		return NewExtractedText("", models.SourceDigital), fmt.Errorf("digital extraction: %w: %v", common.ErrMalformedInput, err)
	}
	return NewExtractedText(strings.TrimSpace(strings.Join(pages, PageBreak)), models.SourceDigital), nil
}

// extractPages opens data with ledongthuc/pdf and returns the non-empty text of
// each page in page order.
func extractPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("empty buffer")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := pageTextByRow(page)
		if text == "" {
			text = pagePlainText(page)
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	return pages, nil
}

// pageTextByRow keeps the visual row layout, which is what the line-based
// statement parser wants.
func pageTextByRow(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	var lines []string
	for _, row := range rows {
		var parts []string
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// pagePlainText is used for pages whose row extraction came back empty, e.g.
// fonts without positioning information.
func pagePlainText(page pdf.Page) string {
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
