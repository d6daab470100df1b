// Package docparse turns raw OCR text into structured comprobante records:
// a keyword classifier picks ticket vs. CFDI invoice, ordered pattern
// tables extract fields, positional heuristics resolve ambiguous amounts,
// and a signal table adjusts the OCR engine's confidence.
//
// The engine is pure: no I/O, no shared state, safe for concurrent use.
package docparse

import (
	"log/slog"
	"time"

	"github.com/grupoeventa/comprobantes/constants"
)

// Engine is the field-extraction engine. The zero cost of construction is
// deliberate; everything is computed per call.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Engine)

// WithClock overrides the clock consulted when a ticket has no parseable
// date. Tests pin it; production uses time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{logger: logger, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Parse classifies the text, runs the matching extractor, and scores the
// result. It never fails: unmatched fields are simply absent, and
// unclassifiable text yields a result with neither record populated.
func (e *Engine) Parse(in RawOCRResult) Result {
	kind := Classify(in.Text)
	res := Result{
		FullText:   in.Text,
		Kind:       kind,
		Confidence: Score(in.Text, in.Confidence),
	}

	switch kind {
	case constants.KindTicket:
		t := extractTicket(in.Text, e.now().Format("2006-01-02"))
		res.Ticket = &t
	case constants.KindInvoice:
		f := extractInvoice(in.Text)
		res.Invoice = &f
	}

	e.logger.Debug("docparse.parse",
		"kind", string(kind),
		"engine_confidence", in.Confidence,
		"confidence", res.Confidence,
		"text_bytes", len(in.Text),
	)
	return res
}
