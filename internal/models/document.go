package models

// Document is an uploaded statement. It is owned by a single extraction
// request and must not be modified once received.
type Document struct {
	Data     []byte
	Filename string
}

// Provenance records which extraction strategy produced a piece of text.
type Provenance string

const (
	SourceDigital Provenance = "digital"
	SourceOCR     Provenance = "ocr"
	SourceRawScan Provenance = "raw-scan"
)

// ExtractedText is the output of exactly one extraction strategy.
type ExtractedText struct {
	Text    string     `json:"-"`
	Source  Provenance `json:"source"`
	Length  int        `json:"length"`
	Quality float64    `json:"quality"` // ratio of readable characters, 0..1
}

// AnchorSource tells where the balance reconstruction anchor came from.
type AnchorSource string

const (
	AnchorDefault   AnchorSource = "default"
	AnchorStatement AnchorSource = "statement"
	AnchorModel     AnchorSource = "model"
)

// StageOutcome captures what one pipeline stage did.
type StageOutcome struct {
	Stage      string `json:"stage"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Quality describes how a StatementResult was produced. Synthetic is set when
// no transactions could be extracted and placeholder rows were generated.
type Quality struct {
	RequestID         string         `json:"request_id"`
	Text              ExtractedText  `json:"text"`
	Synthetic         bool           `json:"synthetic"`
	StructuredByModel bool           `json:"structured_by_model"`
	AnchorSource      AnchorSource   `json:"anchor_source"`
	Stages            []StageOutcome `json:"stages"`
}
