package common

import (
	"context"
	"errors"
	"fmt"
)

// Failure classes for the extraction pipeline. Only ErrEmptyRequest is ever
// surfaced to a caller; the rest downgrade the result instead.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrMalformedInput  = errors.New("malformed input")
	ErrSchemaViolation = errors.New("schema violation")
	ErrEmptyRequest    = errors.New("empty request")
)

// TransportError is returned when an external service answers with a
// non-success status.
type TransportError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
}

// AppError is the error shape returned by the HTTP API.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Outcome labels recorded per pipeline stage.
const (
	OutcomeOK           = "ok"
	OutcomeInsufficient = "insufficient"
	OutcomeSkipped      = "skipped"
	OutcomeTimeout      = "timeout"
	OutcomeTransport    = "transport_error"
	OutcomeMalformed    = "malformed_input"
	OutcomeSchema       = "schema_violation"
	OutcomeFailed       = "failed"
)

// OutcomeFor maps a stage error to its outcome label.
func OutcomeFor(err error) string {
	var te *TransportError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrConfiguration):
		return OutcomeSkipped
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.As(err, &te):
		return OutcomeTransport
	case errors.Is(err, ErrMalformedInput):
		return OutcomeMalformed
	case errors.Is(err, ErrSchemaViolation):
		return OutcomeSchema
	default:
		return OutcomeFailed
	}
}
