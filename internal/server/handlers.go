package server

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grupoeventa/comprobantes/constants"
	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/entity"
)

type ocrProcessRequest struct {
	Image    string `json:"image"`
	Filename string `json:"filename"`
}

type ocrProcessResponse struct {
	ScanID      uuid.UUID       `json:"scan_id"`
	Kind        string          `json:"kind"`
	Confidence  int             `json:"confidence"`
	NeedsReview bool            `json:"needs_review"`
	Cached      bool            `json:"cached,omitempty"`
	Result      json.RawMessage `json:"result"`
}

// handleOCRProcess accepts a base64-encoded file, runs the scan pipeline
// and returns the parsed result. Re-uploads of already-parsed content are
// answered from the stored document without running OCR again.
func (s *Server) handleOCRProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxBodyBytes))

	var req ocrProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := common.NewValidator().Field("image", req.Image, common.Required).Error(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Filename == "" {
		req.Filename = "upload.jpg"
	}

	ext := constants.NormalizeExt(filepath.Ext(req.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		s.writeError(w, http.StatusBadRequest, "unsupported file extension: "+ext)
		return
	}

	data, err := decodeImagePayload(req.Image)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid base64 image: "+err.Error())
		return
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if resp, ok := s.cachedResult(r.Context(), hash); ok {
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	path := filepath.Join(s.uploadDir, uuid.New().String()+"."+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("server.upload_write_failed", "path", path, "err", err)
		s.writeError(w, http.StatusInternalServerError, "store upload")
		return
	}

	doc, res, err := s.proc.ProcessFile(r.Context(), path)
	if err != nil {
		s.logger.Error("server.process_failed",
			"request_id", common.RequestIDFromContext(r.Context()),
			"file_name", req.Filename,
			"err", err,
		)
		s.writeError(w, http.StatusUnprocessableEntity, "process scan: "+err.Error())
		return
	}

	s.logger.Info("server.ocr_process.ok",
		"request_id", common.RequestIDFromContext(r.Context()),
		"scan_id", doc.ScanID,
		"kind", string(res.Kind),
		"needs_review", doc.NeedsReview,
	)

	s.writeJSON(w, http.StatusOK, ocrProcessResponse{
		ScanID:      doc.ScanID,
		Kind:        string(res.Kind),
		Confidence:  doc.Confidence,
		NeedsReview: doc.NeedsReview,
		Result:      json.RawMessage(doc.Result),
	})
}

// cachedResult answers an upload from a previous PARSED scan of the same
// content hash, if one exists.
func (s *Server) cachedResult(ctx context.Context, hash string) (ocrProcessResponse, bool) {
	scan, err := s.scans.FindByContentHash(ctx, hash)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn("server.dedupe_lookup_failed", "err", err)
		}
		return ocrProcessResponse{}, false
	}
	if scan.Status != constants.ScanStatusParsed {
		return ocrProcessResponse{}, false
	}
	doc, err := s.docs.GetByScanID(ctx, scan.ID)
	if err != nil {
		s.logger.Warn("server.dedupe_document_missing", "scan_id", scan.ID, "err", err)
		return ocrProcessResponse{}, false
	}
	s.logger.Info("server.scan_cache_hit", "scan_id", scan.ID, "content_hash", hash)
	return ocrProcessResponse{
		ScanID:      scan.ID,
		Kind:        string(doc.Kind),
		Confidence:  doc.Confidence,
		NeedsReview: doc.NeedsReview,
		Cached:      true,
		Result:      json.RawMessage(doc.Result),
	}, true
}

// decodeImagePayload decodes a base64 string, tolerating the data URL
// prefix browsers put in front of canvas exports.
func decodeImagePayload(img string) ([]byte, error) {
	if i := strings.Index(img, ";base64,"); i >= 0 {
		img = img[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(img))
}

type scanSummary struct {
	ID            uuid.UUID `json:"id"`
	FileName      string    `json:"file_name"`
	Format        string    `json:"format"`
	Status        string    `json:"status"`
	OCREngine     string    `json:"ocr_engine,omitempty"`
	OCRConfidence int       `json:"ocr_confidence,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 50)
	scans, err := s.scans.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.Error("server.list_scans_failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "list scans")
		return
	}
	out := make([]scanSummary, 0, len(scans))
	for _, sc := range scans {
		out = append(out, scanSummary{
			ID:            sc.ID,
			FileName:      sc.FileName,
			Format:        sc.Format,
			Status:        string(sc.Status),
			OCREngine:     sc.OCREngine,
			OCRConfidence: sc.OCRConfidence,
			ErrorMessage:  sc.ErrorMessage,
			CreatedAt:     sc.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type scanDetail struct {
	scanSummary
	Document *documentSummary `json:"document,omitempty"`
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	if err := common.NewValidator().Field("id", raw, common.UUID).Error(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid scan id")
		return
	}

	scan, err := s.scans.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		s.logger.Error("server.get_scan_failed", "scan_id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "load scan")
		return
	}

	detail := scanDetail{scanSummary: scanSummary{
		ID:            scan.ID,
		FileName:      scan.FileName,
		Format:        scan.Format,
		Status:        string(scan.Status),
		OCREngine:     scan.OCREngine,
		OCRConfidence: scan.OCRConfidence,
		ErrorMessage:  scan.ErrorMessage,
		CreatedAt:     scan.CreatedAt,
	}}
	if doc, err := s.docs.GetByScanID(r.Context(), scan.ID); err == nil {
		d := newDocumentSummary(doc)
		detail.Document = &d
	}
	s.writeJSON(w, http.StatusOK, detail)
}

type documentSummary struct {
	ID            uuid.UUID       `json:"id"`
	ScanID        uuid.UUID       `json:"scan_id"`
	Kind          string          `json:"kind"`
	Confidence    int             `json:"confidence"`
	Establishment string          `json:"establishment,omitempty"`
	IssuedOn      string          `json:"issued_on,omitempty"`
	Total         *float64        `json:"total,omitempty"`
	Result        json.RawMessage `json:"result"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (s *Server) handleListReview(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 100)
	docs, err := s.docs.ListNeedsReview(r.Context(), limit)
	if err != nil {
		s.logger.Error("server.list_review_failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "list documents")
		return
	}
	out := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, newDocumentSummary(d))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func newDocumentSummary(d *entity.Document) documentSummary {
	return documentSummary{
		ID:            d.ID,
		ScanID:        d.ScanID,
		Kind:          string(d.Kind),
		Confidence:    d.Confidence,
		Establishment: d.Establishment,
		IssuedOn:      d.IssuedOn,
		Total:         d.Total,
		Result:        json.RawMessage(d.Result),
		CreatedAt:     d.CreatedAt,
	}
}

// handleExport streams an XLSX of parsed documents. from and to are
// optional YYYY-MM-DD bounds, to inclusive.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
		return
	}

	data, err := s.exporter.ExportDocumentsXLSX(r.Context(), from, to)
	if err != nil {
		s.logger.Error("server.export_failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "export documents")
		return
	}

	name := fmt.Sprintf("comprobantes-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("server.export_write_failed", "err", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
