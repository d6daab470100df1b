package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/docparse"
)

// defaultMinTextLen is the shortest recognized text the chain accepts
// without trying the next engine. Anything shorter is almost certainly a
// failed recognition, not a short receipt.
const defaultMinTextLen = 20

// Chain runs engines in order and returns the first acceptable result.
// When every engine falls short it returns the longest text any of them
// produced, so a marginal recognition still reaches the parser.
type Chain struct {
	engines []Recognizer
	minLen  int
	logger  *slog.Logger
}

type ChainOption func(*Chain)

// WithMinTextLen overrides the acceptance threshold.
func WithMinTextLen(n int) ChainOption {
	return func(c *Chain) { c.minLen = n }
}

func NewChain(logger *slog.Logger, engines []Recognizer, opts ...ChainOption) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chain{engines: engines, minLen: defaultMinTextLen, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Recognize returns the recognized text plus the name of the engine that
// produced it.
func (c *Chain) Recognize(ctx context.Context, path string) (docparse.RawOCRResult, string, error) {
	if len(c.engines) == 0 {
		return docparse.RawOCRResult{}, "", fmt.Errorf("no engines configured: %w", common.ErrOCRFailed)
	}

	var best docparse.RawOCRResult
	var bestEngine string
	var lastErr error

	for _, eng := range c.engines {
		res, err := eng.Recognize(ctx, path)
		if err != nil {
			c.logger.Warn("textextract.engine_failed",
				"engine", eng.Name(),
				"path", path,
				"error", err,
			)
			lastErr = err
			continue
		}

		n := len(strings.TrimSpace(res.Text))
		c.logger.Debug("textextract.engine_result",
			"engine", eng.Name(),
			"path", path,
			"text_len", n,
			"confidence", res.Confidence,
		)
		if n >= c.minLen {
			return res, eng.Name(), nil
		}
		if n > len(strings.TrimSpace(best.Text)) {
			best, bestEngine = res, eng.Name()
		}
	}

	if bestEngine != "" {
		c.logger.Warn("textextract.short_text_accepted",
			"engine", bestEngine,
			"path", path,
			"text_len", len(best.Text),
		)
		return best, bestEngine, nil
	}
	if lastErr != nil {
		return docparse.RawOCRResult{}, "", fmt.Errorf("all engines failed: %w", lastErr)
	}
	return docparse.RawOCRResult{}, "", fmt.Errorf("no text recognized: %w", common.ErrOCRFailed)
}
