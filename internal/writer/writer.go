// Package writer exports a StatementResult as JSON, CSV or XLSX.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

// Writer renders a result to out.
type Writer interface {
	Write(out io.Writer, res *models.StatementResult) error
}

// JSONWriter writes the result in the API's JSON shape.
type JSONWriter struct {
	Indent bool
}

func (w JSONWriter) Write(out io.Writer, res *models.StatementResult) error {
	enc := json.NewEncoder(out)
	if w.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// ForFormat returns the writer for "json", "csv" or "xlsx".
func ForFormat(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "json":
		return JSONWriter{Indent: true}, nil
	case "csv":
		return &CSVWriter{IncludeHeader: true}, nil
	case "xlsx":
		return XLSXWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want json, csv or xlsx)", format)
	}
}

// WriteToFile renders res into the file at path.
func WriteToFile(w Writer, path string, res *models.StatementResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	if err := w.Write(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
