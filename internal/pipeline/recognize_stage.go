package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/grupoeventa/comprobantes/internal/docparse"
	"github.com/grupoeventa/comprobantes/internal/repository"
)

// Recognizer is what the recognize stage needs from the engine chain.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (docparse.RawOCRResult, string, error)
}

type RecognizeStage struct {
	Scans  repository.ScanRepository
	Chain  Recognizer
	Logger *slog.Logger
}

func NewRecognizeStage(scans repository.ScanRepository, chain Recognizer, logger *slog.Logger) *RecognizeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecognizeStage{Scans: scans, Chain: chain, Logger: logger}
}

// Run marks the scan RUNNING, recognizes text from its file, and persists
// the outcome. On success the scan is OCR_OK with engine and confidence
// recorded; on failure it is FAILED with the error message.
func (s *RecognizeStage) Run(ctx context.Context, scanID uuid.UUID) (docparse.RawOCRResult, error) {
	scan, err := s.Scans.GetByID(ctx, scanID)
	if err != nil {
		return docparse.RawOCRResult{}, fmt.Errorf("load scan: %w", err)
	}
	if err := s.Scans.MarkRunning(ctx, scanID); err != nil {
		return docparse.RawOCRResult{}, fmt.Errorf("mark running: %w", err)
	}

	raw, engine, err := s.Chain.Recognize(ctx, scan.FilePath)
	if err != nil {
		_ = s.Scans.MarkFailed(ctx, scanID, err.Error())
		return docparse.RawOCRResult{}, fmt.Errorf("recognize: %w", err)
	}

	if err := s.Scans.MarkOCROK(ctx, scanID, engine, raw.Confidence); err != nil {
		return raw, fmt.Errorf("mark ocr ok: %w", err)
	}

	s.Logger.Info("pipeline.recognize.ok",
		"scan_id", scanID,
		"engine", engine,
		"confidence", raw.Confidence,
		"text_bytes", len(raw.Text),
	)
	return raw, nil
}
