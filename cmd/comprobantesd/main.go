// comprobantesd is the HTTP daemon: it accepts uploads from the events
// ERP front end, runs the scan pipeline against Postgres and serves the
// report endpoints.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grupoeventa/comprobantes/internal/async"
	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/docparse"
	"github.com/grupoeventa/comprobantes/internal/export"
	"github.com/grupoeventa/comprobantes/internal/ingest"
	"github.com/grupoeventa/comprobantes/internal/ocr"
	processor "github.com/grupoeventa/comprobantes/internal/pipeline"
	"github.com/grupoeventa/comprobantes/internal/repository"
	"github.com/grupoeventa/comprobantes/internal/server"
	"github.com/grupoeventa/comprobantes/internal/textextract"
	"github.com/grupoeventa/comprobantes/internal/vision"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	uploadDir := flag.String("upload-dir", "", "directory for uploaded files (default: temp dir)")
	watchDir := flag.String("watch-dir", "", "hot folder to scan automatically (optional)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL required")
		os.Exit(1)
	}

	dir := *uploadDir
	if dir == "" {
		dir, err = os.MkdirTemp("", "comprobantes-uploads-*")
		if err != nil {
			logger.Error("create upload dir", "error", err)
			os.Exit(1)
		}
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("create upload dir", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if *watchDir != "" {
		ing := ingest.NewService(logger, scans, proc)
		queue := async.NewScanQueue(ing, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			queue.Shutdown(shutdownCtx)
		}()

		evCh, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{*watchDir},
			InitialScan: true,
			Debounce:    2 * time.Second,
		}, logger)
		if err != nil {
			logger.Error("start watcher", "dir", *watchDir, "error", err)
			os.Exit(1)
		}
		go func() {
			for path := range evCh {
				_ = queue.Enqueue(ctx, async.Job{Path: path, SubmittedAt: time.Now()})
			}
		}()
	}

	srv := server.NewServer(logger, cfg.Server, proc, scans, docs,
		export.NewService(docs, logger), pool, dir)

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

// buildChain assembles the OCR engine order: cloud vision first when an
// API key is configured, local tesseract always last.
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
