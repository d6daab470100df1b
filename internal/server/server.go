// Package server exposes the scan pipeline over a small JSON API. The
// upload endpoint mirrors what the ERP front end already calls; the rest
// are operator endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/export"
	processor "github.com/grupoeventa/comprobantes/internal/pipeline"
	"github.com/grupoeventa/comprobantes/internal/repository"
)

// Pinger is the slice of the connection pool the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	logger    *slog.Logger
	cfg       common.ServerConfig
	proc      *processor.Processor
	scans     repository.ScanRepository
	docs      repository.DocumentRepository
	exporter  *export.Service
	db        Pinger
	uploadDir string
}

func NewServer(
	logger *slog.Logger,
	cfg common.ServerConfig,
	proc *processor.Processor,
	scans repository.ScanRepository,
	docs repository.DocumentRepository,
	exporter *export.Service,
	db Pinger,
	uploadDir string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 15 << 20
	}
	return &Server{
		logger:    logger,
		cfg:       cfg,
		proc:      proc,
		scans:     scans,
		docs:      docs,
		exporter:  exporter,
		db:        db,
		uploadDir: uploadDir,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ocr-process", s.handleOCRProcess)
	mux.HandleFunc("GET /api/scans", s.handleListScans)
	mux.HandleFunc("GET /api/scans/{id}", s.handleGetScan)
	mux.HandleFunc("GET /api/documents/review", s.handleListReview)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return s.withRequestID(mux)
}

// withRequestID stamps every request with an id that handlers pull back
// out of the context for their log lines.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), reqID)))
	})
}

// ListenAndServe runs the HTTP server until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", s.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("server.encode_response_error", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
