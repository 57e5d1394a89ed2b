package extractor

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/remote"
)

// ocrRequest is the recognition service request body.
type ocrRequest struct {
	Model              string      `json:"model"`
	Document           ocrDocument `json:"document"`
	Pages              []int       `json:"pages"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

type ocrDocument struct {
	Type string `json:"type"`
	Data string `json:"data"`
	Name string `json:"name"`
}

type ocrResponse struct {
	Pages []struct {
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// OCRClient submits documents to a remote OCR service.
type OCRClient struct {
	cfg  config.OCRConfig
	http *http.Client
}

// NewOCRClient builds a client. The client is usable even without an API
// key; Extract then reports a configuration error.
func NewOCRClient(cfg config.OCRConfig) *OCRClient {
	return &OCRClient{cfg: cfg, http: remote.NewClient(cfg.Timeout)}
}

// Configured reports whether an OCR credential is set.
func (c *OCRClient) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Extract sends the whole document for recognition and joins the returned
// pages in the order the service lists them.
func (c *OCRClient) Extract(ctx context.Context, doc models.Document) (models.ExtractedText, error) {
	if !c.Configured() {
		return models.ExtractedText{Source: models.SourceOCR}, fmt.Errorf("ocr: no API key: %w", common.ErrConfiguration)
	}

	req := ocrRequest{
		Model: c.cfg.Model,
		Document: ocrDocument{
			Type: "base64",
			Data: base64.StdEncoding.EncodeToString(doc.Data),
			Name: doc.Filename,
		},
		Pages:              []int{},
		IncludeImageBase64: false,
	}

	var resp ocrResponse
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	if err := remote.PostJSON(ctx, c.http, "ocr", c.cfg.Endpoint, headers, req, &resp); err != nil {
		return models.ExtractedText{Source: models.SourceOCR}, err
	}

	pages := make([]string, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		if text := strings.TrimSpace(p.Markdown); text != "" {
			pages = append(pages, text)
		}
	}
	return NewExtractedText(strings.Join(pages, PageBreak), models.SourceOCR), nil
}
