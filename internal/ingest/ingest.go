// Package ingest feeds files from the filesystem into the scan pipeline:
// a one-shot directory walk for backfills and an fsnotify watcher for
// hot folders. Content already parsed is skipped by hash.
package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/grupoeventa/comprobantes/constants"
	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/docparse"
	"github.com/grupoeventa/comprobantes/internal/entity"
	processor "github.com/grupoeventa/comprobantes/internal/pipeline"
	"github.com/grupoeventa/comprobantes/internal/repository"
)

// Pipeline is the slice of the processor the ingestor needs.
type Pipeline interface {
	ProcessFile(ctx context.Context, path string) (*entity.Document, docparse.Result, error)
}

type Service struct {
	logger *slog.Logger
	scans  repository.ScanRepository
	proc   Pipeline
}

func NewService(logger *slog.Logger, scans repository.ScanRepository, proc Pipeline) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, scans: scans, proc: proc}
}

// ProcessFile runs one file through the pipeline unless a scan with the
// same content hash already parsed. Watcher events fire more than once
// per file, so the skip keeps re-runs cheap.
func (s *Service) ProcessFile(ctx context.Context, path string) error {
	hash, err := processor.HashFile(path)
	if err != nil {
		return err
	}

	scan, err := s.scans.FindByContentHash(ctx, hash)
	if err == nil && scan.Status == constants.ScanStatusParsed {
		s.logger.Info("ingest.skip_duplicate", "path", path, "scan_id", scan.ID)
		return nil
	}
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	_, _, err = s.proc.ProcessFile(ctx, path)
	return err
}
