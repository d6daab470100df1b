package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/grupoeventa/comprobantes/constants"
	"github.com/grupoeventa/comprobantes/internal/docparse"
	"github.com/grupoeventa/comprobantes/internal/entity"
	"github.com/grupoeventa/comprobantes/internal/repository"
)

// Config holds thresholds and behavior flags for the parse stage.
type Config struct {
	MinConfidence int // default 60
}

type ParseStage struct {
	Logger *slog.Logger
	Cfg    Config
	Scans  repository.ScanRepository
	Docs   repository.DocumentRepository
	Engine *docparse.Engine
}

func NewParseStage(
	logger *slog.Logger,
	cfg Config,
	scans repository.ScanRepository,
	docs repository.DocumentRepository,
	engine *docparse.Engine,
) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 60
	}
	return &ParseStage{Logger: logger, Cfg: cfg, Scans: scans, Docs: docs, Engine: engine}
}

// Run parses recognized text into a document row and marks the scan
// PARSED. The serialized result is validated against the output contract
// before anything is persisted.
func (p *ParseStage) Run(ctx context.Context, scanID uuid.UUID, raw docparse.RawOCRResult) (*entity.Document, docparse.Result, error) {
	res := p.Engine.Parse(raw)

	encoded, err := json.Marshal(res)
	if err != nil {
		_ = p.Scans.MarkFailed(ctx, scanID, err.Error())
		return nil, res, fmt.Errorf("encode result: %w", err)
	}
	if err := docparse.ValidateResultJSON(encoded); err != nil {
		_ = p.Scans.MarkFailed(ctx, scanID, err.Error())
		return nil, res, fmt.Errorf("validate result: %w", err)
	}

	doc := buildDocument(scanID, res, encoded)
	doc.NeedsReview = p.needsReview(res)

	if err := p.Docs.Create(ctx, doc); err != nil {
		_ = p.Scans.MarkFailed(ctx, scanID, err.Error())
		return nil, res, fmt.Errorf("store document: %w", err)
	}
	if err := p.Scans.MarkParsed(ctx, scanID); err != nil {
		return doc, res, fmt.Errorf("mark parsed: %w", err)
	}

	p.Logger.Info("pipeline.parse.ok",
		"scan_id", scanID,
		"document_id", doc.ID,
		"kind", string(res.Kind),
		"confidence", res.Confidence,
		"needs_review", doc.NeedsReview,
	)
	return doc, res, nil
}

// needsReview flags results a bookkeeper should look at before the
// numbers reach the finance module.
func (p *ParseStage) needsReview(res docparse.Result) bool {
	if res.Kind == constants.KindUnknown {
		return true
	}
	if res.Confidence < p.Cfg.MinConfidence {
		return true
	}
	switch {
	case res.Ticket != nil:
		if res.Ticket.Total == nil || res.Ticket.Establishment == "" {
			return true
		}
	case res.Invoice != nil:
		if res.Invoice.Total == nil || res.Invoice.UUID == "" {
			return true
		}
	}
	return false
}

// buildDocument flattens the queryable fields out of the parse result.
func buildDocument(scanID uuid.UUID, res docparse.Result, encoded []byte) *entity.Document {
	doc := &entity.Document{
		ScanID:     scanID,
		Kind:       res.Kind,
		Confidence: res.Confidence,
		Result:     encoded,
	}
	switch {
	case res.Ticket != nil:
		t := res.Ticket
		doc.Establishment = t.Establishment
		doc.TaxID = t.TaxID
		doc.IssuedOn = t.Date
		doc.Total = t.Total
		doc.Subtotal = t.Subtotal
		doc.IVA = t.IVA
		doc.PaymentMethod = t.PaymentMethod
	case res.Invoice != nil:
		f := res.Invoice
		doc.Establishment = f.IssuerName
		doc.TaxID = f.IssuerTaxID
		doc.IssuedOn = f.IssueDate
		doc.Total = f.Total
		doc.Subtotal = f.Subtotal
		doc.IVA = f.IVA
	}
	return doc
}
