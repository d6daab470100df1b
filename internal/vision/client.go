// Package vision is a thin client for the cloud text-detection endpoint.
// It is the preferred OCR engine for photographed receipts; tesseract is
// the local fallback.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/docparse"
)

// defaultConfidence is reported when the endpoint returns text without
// per-page confidences. The engine is trusted well above tesseract's
// typical output on phone photos.
const defaultConfidence = 90

type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Enabled reports whether the client is configured. Without an API key the
// recognition chain skips the vision engine entirely.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// Recognize submits the image bytes for text detection and returns the
// recognized text with a confidence in 0..100.
func (c *Client) Recognize(ctx context.Context, image []byte) (docparse.RawOCRResult, error) {
	reqID := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"requests": []map[string]any{{
			"image":    map[string]any{"content": base64.StdEncoding.EncodeToString(image)},
			"features": []map[string]any{{"type": "TEXT_DETECTION"}},
		}},
	}
	bs, err := json.Marshal(body)
	if err != nil {
		return docparse.RawOCRResult{}, fmt.Errorf("encode request: %w", err)
	}

	url := c.cfg.Endpoint + "?key=" + c.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return docparse.RawOCRResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("vision.request",
		"req_id", reqID,
		"image_bytes", len(image),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("vision.send_error", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return docparse.RawOCRResult{}, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("vision.body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	c.logger.Info("vision.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode/100 != 2 {
		return docparse.RawOCRResult{}, fmt.Errorf("vision status %d: %w", resp.StatusCode, common.ErrOCRFailed)
	}

	return decodeAnnotateResponse(raw)
}

func decodeAnnotateResponse(raw []byte) (docparse.RawOCRResult, error) {
	var out struct {
		Responses []struct {
			FullTextAnnotation *struct {
				Text  string `json:"text"`
				Pages []struct {
					Confidence float64 `json:"confidence"`
				} `json:"pages"`
			} `json:"fullTextAnnotation"`
			TextAnnotations []struct {
				Description string `json:"description"`
			} `json:"textAnnotations"`
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"responses"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return docparse.RawOCRResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Responses) == 0 {
		return docparse.RawOCRResult{}, fmt.Errorf("empty annotate response: %w", common.ErrOCRFailed)
	}

	r := out.Responses[0]
	if r.Error != nil {
		return docparse.RawOCRResult{}, fmt.Errorf("annotate error: %s: %w", r.Error.Message, common.ErrOCRFailed)
	}

	var text string
	conf := defaultConfidence
	if r.FullTextAnnotation != nil {
		text = r.FullTextAnnotation.Text
		if n := len(r.FullTextAnnotation.Pages); n > 0 {
			var sum float64
			for _, p := range r.FullTextAnnotation.Pages {
				sum += p.Confidence
			}
			conf = int(sum / float64(n) * 100)
		}
	}
	if text == "" && len(r.TextAnnotations) > 0 {
		text = r.TextAnnotations[0].Description
	}
	if text == "" {
		return docparse.RawOCRResult{}, fmt.Errorf("no text detected: %w", common.ErrOCRFailed)
	}

	return docparse.RawOCRResult{Text: text, Confidence: conf}, nil
}
