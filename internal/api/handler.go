package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/writer"
	"github.com/rs/zerolog"
)

// Version is reported by the health endpoint.
const Version = "2.0.0"

const defaultFilename = "document.pdf"

// Extractor runs the extraction pipeline for one document.
type Extractor interface {
	Extract(ctx context.Context, doc models.Document) (*models.StatementResult, error)
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	extractor Extractor
	log       zerolog.Logger
}

func NewHandler(e Extractor, log zerolog.Logger) *Handler {
	return &Handler{extractor: e, log: log}
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/extract", h.HandleExtract)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// jsonEnvelope is the base64 upload form of /api/extract.
type jsonEnvelope struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

// HandleExtract accepts a document as a raw body, a multipart "file" field or
// a JSON envelope with base64 data, and answers with the StatementResult.
// "?format=csv" returns the transactions as CSV instead.
func (h *Handler) HandleExtract(c *fiber.Ctx) error {
	doc, err := readDocument(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "bad_request", err)
	}

	res, err := h.extractor.Extract(c.UserContext(), doc)
	if err != nil {
		h.log.Error().Err(err).Str("filename", doc.Filename).Msg("extraction aborted")
		return writeError(c, fiber.StatusServiceUnavailable, "extraction_aborted", err)
	}

	if strings.EqualFold(c.Query("format"), "csv") {
		var buf bytes.Buffer
		csvWriter := &writer.CSVWriter{IncludeHeader: c.Query("header") != "false"}
		if err := csvWriter.Write(&buf, res); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "csv_failed", err)
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	}

	// nil marshals to JSON null, not []
	if res.Transactions == nil {
		res.Transactions = []models.Transaction{}
	}
	return c.JSON(res)
}

// readDocument pulls the uploaded bytes and filename out of the request. A
// request with no document bytes at all is the only fatal input.
func readDocument(c *fiber.Ctx) (models.Document, error) {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))

	switch {
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		fh, err := c.FormFile("file")
		if err != nil {
			return models.Document{}, fmt.Errorf("no file uploaded, use form field 'file': %w", common.ErrEmptyRequest)
		}
		f, err := fh.Open()
		if err != nil {
			return models.Document{}, fmt.Errorf("open upload: %w", common.ErrMalformedInput)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return models.Document{}, fmt.Errorf("read upload: %w", common.ErrMalformedInput)
		}
		return newDocument(data, fh.Filename)

	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON):
		var env jsonEnvelope
		if err := c.BodyParser(&env); err != nil {
			return models.Document{}, fmt.Errorf("invalid JSON body: %w", common.ErrMalformedInput)
		}
		data, err := base64.StdEncoding.DecodeString(env.Data)
		if err != nil {
			return models.Document{}, fmt.Errorf("data is not valid base64: %w", common.ErrMalformedInput)
		}
		return newDocument(data, env.Filename)

	default:
		name := c.Get("X-Filename")
		if name == "" {
			name = c.Query("filename")
		}
		// fiber reuses the body buffer once the handler returns
		data := append([]byte(nil), c.Body()...)
		return newDocument(data, name)
	}
}

func newDocument(data []byte, filename string) (models.Document, error) {
	if len(data) == 0 {
		return models.Document{}, fmt.Errorf("request carries no document: %w", common.ErrEmptyRequest)
	}
	if filename == "" {
		filename = defaultFilename
	}
	return models.Document{Data: data, Filename: filename}, nil
}

func writeError(c *fiber.Ctx, status int, code string, err error) error {
	msg := err.Error()
	if errors.Is(err, common.ErrEmptyRequest) || errors.Is(err, common.ErrMalformedInput) {
		code = "invalid_request"
	}
	return c.Status(status).JSON(common.NewAppError(code, msg, err))
}
