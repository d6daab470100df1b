// scanfile runs the OCR pipeline against local files without Postgres.
// Parsed results go to stdout as JSON; a local sqlite ledger keyed by
// content hash skips files that were already scanned.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/docparse"
	"github.com/grupoeventa/comprobantes/internal/ocr"
	processor "github.com/grupoeventa/comprobantes/internal/pipeline"
	"github.com/grupoeventa/comprobantes/internal/scancache"
	"github.com/grupoeventa/comprobantes/internal/textextract"
	"github.com/grupoeventa/comprobantes/internal/vision"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	force := flag.Bool("force", false, "re-scan files even when the ledger has seen them")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: scanfile [-config file] [-force] FILE...")
		os.Exit(2)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	cache, err := scancache.Open(cfg.Cache.Path)
	if err != nil {
		logger.Error("open scan cache", "path", cfg.Cache.Path, "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	chain := buildChain(cfg, logger)
	engine := docparse.NewEngine(logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	failed := 0
	for _, path := range flag.Args() {
		if err := scanOne(cfg, cache, chain, engine, enc, path, *force); err != nil {
			logger.Error("scan failed", "file", path, "error", err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func scanOne(
	cfg *common.Config,
	cache *scancache.Cache,
	chain *textextract.Chain,
	engine *docparse.Engine,
	enc *json.Encoder,
	path string,
	force bool,
) error {
	hash, err := processor.HashFile(path)
	if err != nil {
		return fmt.Errorf("hash file: %w", err)
	}

	if !force {
		if entry, err := cache.Lookup(hash); err == nil {
			fmt.Fprintf(os.Stderr, "%s: already scanned as %s (%s, confidence %d), use -force to re-scan\n",
				path, entry.FileName, entry.Kind, entry.Confidence)
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout(cfg))
	defer cancel()

	raw, engineName, err := chain.Recognize(ctx, path)
	if err != nil {
		return fmt.Errorf("recognize: %w", err)
	}

	res := engine.Parse(raw)
	fmt.Fprintf(os.Stderr, "%s: engine=%s kind=%s confidence=%d\n",
		path, engineName, res.Kind, res.Confidence)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if err := cache.Record(hash, path, string(res.Kind), res.Confidence); err != nil {
		return fmt.Errorf("record scan: %w", err)
	}
	return nil
}

func scanTimeout(cfg *common.Config) time.Duration {
	if cfg.OCR.Timeout > 0 {
		return cfg.OCR.Timeout
	}
	return 60 * time.Second
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
