// Package pipeline runs one document through text extraction, heuristic
// parsing, balance reconstruction and the optional model fallback, and
// assembles the StatementResult.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/llm"
	"github.com/insightdelivered/statement-extractor/internal/logger"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/parser"
	"github.com/rs/zerolog"
)

// Deps are the collaborators of a Pipeline. OCR and Structurer may be nil, in
// which case their stages are recorded as skipped.
type Deps struct {
	Digital    TextExtractor
	OCR        TextExtractor
	Raw        RawScanner
	Parser     StatementParser
	Structurer Structurer
	Now        func() time.Time
	Log        zerolog.Logger
}

// Pipeline is safe for concurrent use; all per-request state lives in a run.
type Pipeline struct {
	cfg        config.PipelineConfig
	ocrTimeout time.Duration
	llmTimeout time.Duration

	digital    TextExtractor
	ocr        TextExtractor
	raw        RawScanner
	parser     StatementParser
	structurer Structurer
	now        func() time.Time
	log        zerolog.Logger
}

// New assembles a Pipeline from explicit collaborators. Missing Digital, Raw,
// Parser and Now fall back to the real implementations.
func New(cfg *config.Config, deps Deps) *Pipeline {
	p := &Pipeline{
		cfg:        cfg.Pipeline,
		ocrTimeout: cfg.OCR.Timeout,
		llmTimeout: cfg.LLM.Timeout,
		digital:    deps.Digital,
		ocr:        deps.OCR,
		raw:        deps.Raw,
		parser:     deps.Parser,
		structurer: deps.Structurer,
		now:        deps.Now,
		log:        deps.Log,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.digital == nil {
		p.digital = extractor.DigitalExtractor{}
	}
	if p.raw == nil {
		p.raw = extractor.RawScanner{}
	}
	if p.parser == nil {
		p.parser = parser.NewWithClock(p.now)
	}
	return p
}

// NewFromConfig wires the production collaborators. Without an OCR key both
// the OCR stage and the model fallback are left out; the fallback also
// needs an LLM key.
func NewFromConfig(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Pipeline, error) {
	deps := Deps{Log: log}

	if cfg.OCR.APIKey == "" {
		log.Info().Msg("no OCR credential configured, OCR and structuring fallback disabled")
		return New(cfg, deps), nil
	}
	deps.OCR = extractor.NewOCRClient(cfg.OCR)

	completer, err := llm.NewCompleter(ctx, cfg.LLM)
	switch {
	case errors.Is(err, common.ErrConfiguration):
		log.Info().Msg("no LLM credential configured, structuring fallback disabled")
	case err != nil:
		return nil, err
	default:
		s, err := llm.NewStructurer(completer, cfg.LLM.MaxInputChars)
		if err != nil {
			return nil, fmt.Errorf("build structurer: %w", err)
		}
		deps.Structurer = s
	}

	return New(cfg, deps), nil
}

// run is the state of one extraction request.
type run struct {
	doc   models.Document
	reqID string
	log   zerolog.Logger

	text         models.ExtractedText
	parsed       parser.Parsed
	txns         []models.Transaction
	account      models.AccountInfo
	anchorSource models.AnchorSource
	structured   bool
	stages       []models.StageOutcome

	result models.StatementResult
}

func (r *run) record(stage State, outcome, detail string, start time.Time) {
	r.stages = append(r.stages, models.StageOutcome{
		Stage:      stage.String(),
		Outcome:    outcome,
		Detail:     detail,
		DurationMs: time.Since(start).Milliseconds(),
	})
	ev := r.log.Info()
	if outcome != common.OutcomeOK && outcome != common.OutcomeSkipped && outcome != common.OutcomeInsufficient {
		ev = r.log.Warn()
	}
	ev.Str("stage", stage.String()).Str("outcome", outcome).Str("detail", detail).Msg("stage finished")
}

// Extract runs doc through the state machine. Poor or unreadable documents
// still produce a result; an error is returned only when ctx is cancelled.
func (p *Pipeline) Extract(ctx context.Context, doc models.Document) (*models.StatementResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &run{doc: doc, reqID: uuid.NewString()}
	r.log = p.log.With().
		Str("request_id", r.reqID).
		Str("filename", doc.Filename).
		Int("bytes", len(doc.Data)).
		Logger()
	ctx = logger.WithContext(ctx, r.log)

	start := time.Now()
	for state := StateDigital; state != StateDone; {
		next := transitions[state](p, ctx, r)
		r.log.Debug().Stringer("from", state).Stringer("to", next).Msg("transition")
		state = next
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}

	r.log.Info().
		Str("source", string(r.result.Quality.Text.Source)).
		Int("transactions", len(r.result.Transactions)).
		Bool("synthetic", r.result.Quality.Synthetic).
		Bool("structured_by_model", r.result.Quality.StructuredByModel).
		Dur("elapsed", time.Since(start)).
		Msg("extraction finished")
	return &r.result, nil
}
