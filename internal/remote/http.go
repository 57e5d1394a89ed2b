// Package remote holds the JSON-over-HTTP plumbing shared by the OCR client
// and the structuring fallback.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/logger"
)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 512

// maxResponseBody caps how much of any response is read.
var maxResponseBody int64 = 16 << 20

// PostJSON sends body as JSON to url and decodes a 2xx response into out.
// A non-2xx status is returned as *common.TransportError tagged with service.
func PostJSON(ctx context.Context, client *http.Client, service, url string, headers map[string]string, body, out any) error {
	log := logger.FromContext(ctx)
	reqID := uuid.NewString()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.Debug().
		Str("service", service).
		Str("http_req_id", reqID).
		Int("content_length", len(bs)).
		Msg("remote request")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", service, err)
	}
	if int64(len(raw)) > maxResponseBody {
		return fmt.Errorf("%s: response exceeds %d bytes", service, maxResponseBody)
	}

	log.Debug().
		Str("service", service).
		Str("http_req_id", reqID).
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Dur("elapsed", time.Since(start)).
		Msg("remote response")

	if resp.StatusCode/100 != 2 {
		msg := string(raw)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return &common.TransportError{Service: service, StatusCode: resp.StatusCode, Body: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

// NewClient returns an HTTP client with the given timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
