// Package processor coordinates the two scan stages: text recognition
// (vision or tesseract) and field extraction.
package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/grupoeventa/comprobantes/constants"
	"github.com/grupoeventa/comprobantes/internal/docparse"
	"github.com/grupoeventa/comprobantes/internal/entity"
	"github.com/grupoeventa/comprobantes/internal/repository"
)

type Processor struct {
	Logger    *slog.Logger
	Scans     repository.ScanRepository
	Recognize *RecognizeStage
	Parse     *ParseStage
}

func NewProcessor(logger *slog.Logger, scans repository.ScanRepository, recognize *RecognizeStage, parse *ParseStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Scans: scans, Recognize: recognize, Parse: parse}
}

// ProcessScan runs recognition then parse for an existing scan row.
func (p *Processor) ProcessScan(ctx context.Context, scanID uuid.UUID) (*entity.Document, docparse.Result, error) {
	raw, err := p.Recognize.Run(ctx, scanID)
	if err != nil {
		p.Logger.Error("processor.recognize.failed", "scan_id", scanID, "err", err)
		return nil, docparse.Result{}, err
	}

	doc, res, err := p.Parse.Run(ctx, scanID, raw)
	if err != nil {
		p.Logger.Error("processor.parse.failed", "scan_id", scanID, "err", err)
		return nil, res, err
	}
	return doc, res, nil
}

// ProcessFile registers a scan for a file on disk and processes it.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*entity.Document, docparse.Result, error) {
	scan, err := p.RegisterFile(ctx, path)
	if err != nil {
		return nil, docparse.Result{}, err
	}
	return p.ProcessScan(ctx, scan.ID)
}

// RegisterFile creates the QUEUED scan row for a file, hashing its bytes.
func (p *Processor) RegisterFile(ctx context.Context, path string) (*entity.Scan, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	if format == "" {
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}

	hash, err := HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash file: %w", err)
	}

	scan := &entity.Scan{
		FilePath:    path,
		FileName:    filepath.Base(path),
		Format:      format,
		ContentHash: hash,
	}
	if err := p.Scans.Create(ctx, scan); err != nil {
		return nil, err
	}
	p.Logger.Info("processor.scan.registered",
		"scan_id", scan.ID,
		"file_name", scan.FileName,
		"format", format,
	)
	return scan, nil
}

// HashFile returns the hex sha256 of the file bytes.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
