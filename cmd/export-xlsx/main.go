// export-xlsx writes the parsed-documents spreadsheet to a file, for the
// accounting close when nobody wants to go through the HTTP endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/export"
	"github.com/grupoeventa/comprobantes/internal/repository"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	fromArg := flag.String("from", "", "start date YYYY-MM-DD (optional)")
	toArg := flag.String("to", "", "end date YYYY-MM-DD, inclusive (optional)")
	out := flag.String("out", "", "output path (default: EXPORT_DIR/comprobantes-<date>.xlsx)")
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
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL required")
		os.Exit(1)
	}

	from, err := parseDate(*fromArg)
	if err != nil {
		logger.Error("invalid -from date, want YYYY-MM-DD", "arg", *fromArg)
		os.Exit(2)
	}
	to, err := parseDate(*toArg)
	if err != nil {
		logger.Error("invalid -to date, want YYYY-MM-DD", "arg", *toArg)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	docs := repository.NewDocumentRepository(pool, logger)
	svc := export.NewService(docs, logger)

	data, err := svc.ExportDocumentsXLSX(ctx, from, to)
	if err != nil {
		logger.Error("export", "error", err)
		os.Exit(1)
	}

	path := *out
	if path == "" {
		if err := os.MkdirAll(cfg.Export.OutputDir, 0o755); err != nil {
			logger.Error("create output dir", "error", err)
			os.Exit(1)
		}
		name := fmt.Sprintf("comprobantes-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
		path = filepath.Join(cfg.Export.OutputDir, name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("write file", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("export written", "path", path, "bytes", len(data))
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
