package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/insightdelivered/statement-extractor/internal/balance"
	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/parser"
	"github.com/shopspring/decimal"
)

// State is a step of the extraction state machine.
type State int

const (
	StateDigital State = iota
	StateOCR
	StateRawScan
	StateParse
	StateReconstruct
	StateStructure
	StateAssemble
	StateDone
)

var stateNames = map[State]string{
	StateDigital:     "digital",
	StateOCR:         "ocr",
	StateRawScan:     "raw_scan",
	StateParse:       "parse",
	StateReconstruct: "reconstruct",
	StateStructure:   "structure",
	StateAssemble:    "assemble",
	StateDone:        "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transition runs one state and returns the next.
type transition func(p *Pipeline, ctx context.Context, r *run) State

// transitions is the whole machine:
//
//	digital --sufficient--> parse
//	digital --otherwise--> ocr --sufficient--> parse
//	ocr --otherwise--> raw_scan --> parse
//	parse --> reconstruct --> structure --> assemble --> done
var transitions = map[State]transition{
	StateDigital:     (*Pipeline).digitalAttempt,
	StateOCR:         (*Pipeline).ocrAttempt,
	StateRawScan:     (*Pipeline).rawScan,
	StateParse:       (*Pipeline).parse,
	StateReconstruct: (*Pipeline).reconstruct,
	StateStructure:   (*Pipeline).structure,
	StateAssemble:    (*Pipeline).assemble,
}

func (p *Pipeline) digitalAttempt(ctx context.Context, r *run) State {
	start := time.Now()
	text, err := p.digital.Extract(ctx, r.doc)
	if err != nil {
		r.record(StateDigital, common.OutcomeFor(err), err.Error(), start)
		return StateOCR
	}
	if text.Length <= p.cfg.MinDigitalChars {
		r.record(StateDigital, common.OutcomeInsufficient, fmt.Sprintf("%d chars", text.Length), start)
		return StateOCR
	}
	r.text = text
	r.record(StateDigital, common.OutcomeOK, fmt.Sprintf("%d chars", text.Length), start)
	return StateParse
}

func (p *Pipeline) ocrAttempt(ctx context.Context, r *run) State {
	start := time.Now()
	if p.ocr == nil {
		r.record(StateOCR, common.OutcomeSkipped, "no OCR credential", start)
		return StateRawScan
	}

	ctx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
	defer cancel()

	text, err := p.ocr.Extract(ctx, r.doc)
	if err != nil {
		r.record(StateOCR, common.OutcomeFor(err), err.Error(), start)
		return StateRawScan
	}
	if text.Length <= p.cfg.MinOCRChars {
		r.record(StateOCR, common.OutcomeInsufficient, fmt.Sprintf("%d chars", text.Length), start)
		return StateRawScan
	}
	r.text = text
	r.record(StateOCR, common.OutcomeOK, fmt.Sprintf("%d chars", text.Length), start)
	return StateParse
}

func (p *Pipeline) rawScan(_ context.Context, r *run) State {
	start := time.Now()
	r.text = p.raw.Scan(r.doc.Data)
	r.record(StateRawScan, common.OutcomeOK, fmt.Sprintf("%d chars", r.text.Length), start)
	return StateParse
}

func (p *Pipeline) parse(_ context.Context, r *run) State {
	start := time.Now()
	r.parsed = p.parser.Parse(r.text.Text)
	r.txns = r.parsed.Transactions
	r.account = r.parsed.Account

	detail := fmt.Sprintf("%d transactions", len(r.txns))
	if r.parsed.Synthetic {
		detail = fmt.Sprintf("no transactions found, %d synthetic rows", len(r.txns))
	}
	r.record(StateParse, common.OutcomeOK, detail, start)
	return StateReconstruct
}

func (p *Pipeline) reconstruct(_ context.Context, r *run) State {
	start := time.Now()
	r.anchorSource = models.AnchorDefault
	if r.parsed.StatementBalance != nil && !p.cfg.IgnoreStatementAnchor {
		r.anchorSource = models.AnchorStatement
	}
	anchor := p.anchorFor(r, r.txns)
	balance.Reconstruct(r.txns, anchor)
	r.record(StateReconstruct, common.OutcomeOK, fmt.Sprintf("anchor %s (%s)", anchor.StringFixed(2), r.anchorSource), start)
	return StateStructure
}

// anchorFor returns the balance given to the last row of txns. A printed
// closing balance already includes the last row, so that row's effect is
// taken back out.
func (p *Pipeline) anchorFor(r *run, txns []models.Transaction) decimal.Decimal {
	if r.anchorSource != models.AnchorStatement {
		return p.cfg.Anchor()
	}
	closing := *r.parsed.StatementBalance
	if len(txns) == 0 {
		return closing
	}
	return closing.Sub(txns[len(txns)-1].Signed())
}

// structure runs the model fallback when the heuristic result looks poor. On
// any failure the heuristic result is left exactly as it was.
func (p *Pipeline) structure(ctx context.Context, r *run) State {
	start := time.Now()

	found := len(r.txns)
	if r.parsed.Synthetic {
		found = 0
	}
	switch {
	case p.structurer == nil:
		r.record(StateStructure, common.OutcomeSkipped, "no structuring credential", start)
		return StateAssemble
	case found >= p.cfg.MinHeuristicTxns:
		r.record(StateStructure, common.OutcomeSkipped, fmt.Sprintf("parser found %d transactions", found), start)
		return StateAssemble
	case r.text.Length <= p.cfg.MinStructuringChars:
		r.record(StateStructure, common.OutcomeSkipped, fmt.Sprintf("text too short (%d chars)", r.text.Length), start)
		return StateAssemble
	}

	ctx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()

	s, err := p.structurer.Structure(ctx, r.text.Text)
	if err != nil {
		r.record(StateStructure, common.OutcomeFor(err), err.Error(), start)
		return StateAssemble
	}

	r.txns = s.Transactions
	r.structured = true
	r.account = mergeAccount(s.Account, r.account)
	if s.HasBalances && balance.Consistent(r.txns) {
		r.anchorSource = models.AnchorModel
	} else {
		balance.Reconstruct(r.txns, p.anchorFor(r, r.txns))
	}
	r.record(StateStructure, common.OutcomeOK, fmt.Sprintf("%d transactions from model", len(r.txns)), start)
	return StateAssemble
}

func (p *Pipeline) assemble(_ context.Context, r *run) State {
	start := time.Now()
	synthetic := r.parsed.Synthetic && !r.structured
	r.record(StateAssemble, common.OutcomeOK, "", start)

	r.result = models.StatementResult{
		AccountInfo:  r.account,
		DateRange:    parser.DateRange(r.txns, p.now()),
		Transactions: r.txns,
		Summary:      models.Summarize(r.txns),
		Quality: models.Quality{
			RequestID:         r.reqID,
			Text:              r.text,
			Synthetic:         synthetic,
			StructuredByModel: r.structured,
			AnchorSource:      r.anchorSource,
			Stages:            r.stages,
		},
	}
	return StateDone
}

// mergeAccount prefers the model's values and keeps the heuristic ones where
// the model reported nothing.
func mergeAccount(model, heuristic models.AccountInfo) models.AccountInfo {
	out := heuristic
	if model.AccountNumber != "" {
		out.AccountNumber = model.AccountNumber
	}
	if model.AccountHolder != "" {
		out.AccountHolder = model.AccountHolder
	}
	if model.BankName != "" {
		out.BankName = model.BankName
	}
	return out
}
