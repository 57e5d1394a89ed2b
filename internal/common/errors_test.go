package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestOutcomeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, OutcomeOK},
		{"missing credential", fmt.Errorf("ocr: %w", ErrConfiguration), OutcomeSkipped},
		{"deadline", fmt.Errorf("ocr request: %w", context.DeadlineExceeded), OutcomeTimeout},
		{"transport", fmt.Errorf("wrapped: %w", &TransportError{Service: "ocr", StatusCode: 502}), OutcomeTransport},
		{"malformed", fmt.Errorf("pdf: %w", ErrMalformedInput), OutcomeMalformed},
		{"schema", fmt.Errorf("model: %w", ErrSchemaViolation), OutcomeSchema},
		{"other", errors.New("boom"), OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutcomeFor(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransportErrorMessage(t *testing.T) {
	err := &TransportError{Service: "llm", StatusCode: 429, Body: "rate limited"}
	if got, want := err.Error(), "llm: status 429: rate limited"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	err = &TransportError{Service: "ocr", StatusCode: 500}
	if got, want := err.Error(), "ocr: status 500"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewAppError("EMPTY_REQUEST", "no document supplied", ErrEmptyRequest)
	if !errors.Is(err, ErrEmptyRequest) {
		t.Error("expected AppError to unwrap to ErrEmptyRequest")
	}
	if got, want := err.Error(), "EMPTY_REQUEST: no document supplied: empty request"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
