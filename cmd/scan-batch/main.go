// scan-batch walks a directory of comprobantes, runs every supported
// file through the pipeline and optionally writes the XLSX afterwards.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/docparse"
	"github.com/grupoeventa/comprobantes/internal/export"
	"github.com/grupoeventa/comprobantes/internal/ingest"
	"github.com/grupoeventa/comprobantes/internal/ocr"
	processor "github.com/grupoeventa/comprobantes/internal/pipeline"
	"github.com/grupoeventa/comprobantes/internal/repository"
	"github.com/grupoeventa/comprobantes/internal/textextract"
	"github.com/grupoeventa/comprobantes/internal/vision"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	dir := flag.String("dir", "", "directory to process (required)")
	out := flag.String("out", "", "write an XLSX of all parsed documents here after the run (optional)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *dir == "" {
		logger.Error("-dir is required")
		os.Exit(2)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	scans := repository.NewScanRepository(pool, logger)
	docs := repository.NewDocumentRepository(pool, logger)

	chain := buildChain(cfg, logger)
	engine := docparse.NewEngine(logger)
	proc := processor.NewProcessor(logger, scans,
		processor.NewRecognizeStage(scans, chain, logger),
		processor.NewParseStage(logger, processor.Config{}, scans, docs, engine),
	)
	ing := ingest.NewService(logger, scans, proc)

	results, stats, err := ing.IngestDirectory(ctx, *dir)
	if err != nil {
		logger.Error("ingest directory", "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Err != "" {
			logger.Warn("file failed", "path", r.Path, "error", r.Err)
		}
	}
	logger.Info("batch done",
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)

	if *out != "" {
		svc := export.NewService(docs, logger)
		data, err := svc.ExportDocumentsXLSX(ctx, nil, nil)
		if err != nil {
			logger.Error("export", "error", err)
			os.Exit(1)
		}
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			logger.Error("create output dir", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			logger.Error("write xlsx", "path", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("export written", "path", *out, "bytes", len(data))
	}

	if stats.Failed > 0 {
		os.Exit(1)
	}
}

func buildChain(cfg *common.Config, logger *slog.Logger) *textextract.Chain {
	var engines []textextract.Recognizer

	vc := vision.NewClient(vision.Config{
		Endpoint: cfg.Vision.Endpoint,
		APIKey:   cfg.Vision.APIKey,
		Timeout:  cfg.Vision.Timeout,
	}, logger)
	if vc.Enabled() {
		engines = append(engines, textextract.VisionRecognizer{Client: vc})
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:   cfg.OCR.Binary,
		Languages:   cfg.OCR.Languages,
		TessdataDir: cfg.OCR.TessdataDir,
	}, logger)
	engines = append(engines, textextract.TesseractRecognizer{Extractor: extractor})

	return textextract.NewChain(logger, engines)
}
