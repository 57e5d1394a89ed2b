package extractor

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

func TestRawScanner_Empty(t *testing.T) {
	got := RawScanner{}.Scan(nil)
	if got.Text != RawScanPlaceholder {
		t.Errorf("got %q, want placeholder", got.Text)
	}
	if got.Source != models.SourceRawScan {
		t.Errorf("source: got %q, want %q", got.Source, models.SourceRawScan)
	}
}

func TestRawScanner_ExtractsPrintableRuns(t *testing.T) {
	data := []byte("\x00\x01\x02Account Statement\xff\xfe01/15/2024 Payroll $1500.00\x00ab\x00")

	got := RawScanner{}.Scan(data).Text
	want := "Account Statement 01/15/2024 Payroll $1500.00"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRawScanner_PoundSign(t *testing.T) {
	// 0xA3 is £ in single-byte Western encodings.
	data := []byte("Paid out \xa3250.00 to landlord")
	got := RawScanner{}.Scan(data).Text
	if !strings.Contains(got, "£250.00") {
		t.Errorf("expected pound amount, got %q", got)
	}
}

func TestRawScanner_ShortRunsOnly(t *testing.T) {
	data := []byte("abc\x00def\x00ghi")
	if got := (RawScanner{}).Scan(data).Text; got != RawScanPlaceholder {
		t.Errorf("got %q, want placeholder", got)
	}
}

func TestRawScanner_Bounds(t *testing.T) {
	// Runs beyond the first 50,000 bytes are never seen.
	data := append(bytes.Repeat([]byte{0}, rawScanMaxBytes), []byte("hidden text after the limit")...)
	if got := (RawScanner{}).Scan(data).Text; got != RawScanPlaceholder {
		t.Errorf("expected placeholder for text past the scan window, got %q", got)
	}

	long := bytes.Repeat([]byte("0123456789 abcdefghij\x00"), 2000)
	got := RawScanner{}.Scan(long).Text
	if n := utf8.RuneCountInString(got); n != rawScanMaxChars {
		t.Errorf("expected output truncated to %d chars, got %d", rawScanMaxChars, n)
	}
}
