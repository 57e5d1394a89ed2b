package pipeline

import (
	"context"

	"github.com/insightdelivered/statement-extractor/internal/llm"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/parser"
)

// TextExtractor produces text from a document. The digital extractor and the
// OCR client both satisfy it.
type TextExtractor interface {
	Extract(ctx context.Context, doc models.Document) (models.ExtractedText, error)
}

// RawScanner is the last-resort extractor. It cannot fail.
type RawScanner interface {
	Scan(data []byte) models.ExtractedText
}

// StatementParser reads transaction candidates out of text.
type StatementParser interface {
	Parse(text string) parser.Parsed
}

// Structurer is the language-model fallback.
type Structurer interface {
	Structure(ctx context.Context, text string) (llm.Structured, error)
}
