package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/grupoeventa/comprobantes/constants"
	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/docparse"
	"github.com/grupoeventa/comprobantes/internal/entity"
	"github.com/grupoeventa/comprobantes/internal/export"
	processor "github.com/grupoeventa/comprobantes/internal/pipeline"
)

type fakeScans struct {
	rows map[uuid.UUID]*entity.Scan
}

func newFakeScans() *fakeScans {
	return &fakeScans{rows: make(map[uuid.UUID]*entity.Scan)}
}

func (f *fakeScans) Create(_ context.Context, s *entity.Scan) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = constants.ScanStatusQueued
	}
	s.CreatedAt = time.Now().UTC()
	f.rows[s.ID] = s
	return nil
}

func (f *fakeScans) GetByID(_ context.Context, id uuid.UUID) (*entity.Scan, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return s, nil
}

func (f *fakeScans) FindByContentHash(_ context.Context, hash string) (*entity.Scan, error) {
	var latest *entity.Scan
	for _, s := range f.rows {
		if s.ContentHash != hash {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	return latest, nil
}

func (f *fakeScans) mark(id uuid.UUID, st constants.ScanStatus) error {
	s, ok := f.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	s.Status = st
	return nil
}

func (f *fakeScans) MarkRunning(_ context.Context, id uuid.UUID) error {
	return f.mark(id, constants.ScanStatusRunning)
}

func (f *fakeScans) MarkOCROK(_ context.Context, id uuid.UUID, engine string, confidence int) error {
	if err := f.mark(id, constants.ScanStatusOCROK); err != nil {
		return err
	}
	f.rows[id].OCREngine = engine
	f.rows[id].OCRConfidence = confidence
	return nil
}

func (f *fakeScans) MarkParsed(_ context.Context, id uuid.UUID) error {
	return f.mark(id, constants.ScanStatusParsed)
}

func (f *fakeScans) MarkFailed(_ context.Context, id uuid.UUID, message string) error {
	if err := f.mark(id, constants.ScanStatusFailed); err != nil {
		return err
	}
	f.rows[id].ErrorMessage = message
	return nil
}

func (f *fakeScans) ListRecent(_ context.Context, limit int) ([]*entity.Scan, error) {
	out := make([]*entity.Scan, 0, len(f.rows))
	for _, s := range f.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeDocs struct {
	rows []*entity.Document
}

func (f *fakeDocs) Create(_ context.Context, d *entity.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()
	f.rows = append(f.rows, d)
	return nil
}

func (f *fakeDocs) GetByScanID(_ context.Context, scanID uuid.UUID) (*entity.Document, error) {
	for _, d := range f.rows {
		if d.ScanID == scanID {
			return d, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeDocs) ListBetween(_ context.Context, from, to time.Time) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range f.rows {
		if !d.CreatedAt.Before(from) && d.CreatedAt.Before(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocs) ListNeedsReview(_ context.Context, limit int) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range f.rows {
		if d.NeedsReview {
			out = append(out, d)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type countingChain struct {
	res    docparse.RawOCRResult
	engine string
	err    error
	calls  int
}

func (c *countingChain) Recognize(context.Context, string) (docparse.RawOCRResult, string, error) {
	c.calls++
	return c.res, c.engine, c.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, chain *countingChain, ping fakePinger) (*Server, *fakeScans, *fakeDocs) {
	t.Helper()
	scans := newFakeScans()
	docs := &fakeDocs{}
	engine := docparse.NewEngine(nil, docparse.WithClock(func() time.Time {
		return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	}))
	proc := processor.NewProcessor(nil, scans,
		processor.NewRecognizeStage(scans, chain, nil),
		processor.NewParseStage(nil, processor.Config{}, scans, docs, engine),
	)
	srv := NewServer(nil, common.ServerConfig{HTTPAddr: ":0", MaxBodyBytes: 1 << 20},
		proc, scans, docs, export.NewService(docs, nil), ping, t.TempDir())
	return srv, scans, docs
}

func uploadBody(t *testing.T, filename string, payload []byte) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(ocrProcessRequest{
		Image:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload),
		Filename: filename,
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(body)
}

func doRequest(t *testing.T, srv *Server, method, target string, body *bytes.Reader) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestOCRProcessUpload(t *testing.T) {
	chain := &countingChain{
		res:    docparse.RawOCRResult{Text: "OXXO TIENDA\nTotal $45.00", Confidence: 80},
		engine: "vision",
	}
	srv, scans, docs := newTestServer(t, chain, fakePinger{})

	rr := doRequest(t, srv, http.MethodPost, "/api/ocr-process", uploadBody(t, "ticket.jpg", []byte("fake-jpeg-bytes")))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp ocrProcessResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ScanID == uuid.Nil {
		t.Fatal("scan_id is empty")
	}
	if resp.Kind != string(constants.KindTicket) {
		t.Fatalf("kind = %q", resp.Kind)
	}
	if resp.Cached {
		t.Fatal("first upload reported as cached")
	}
	if resp.NeedsReview {
		t.Fatal("needs_review = true for a clean ticket")
	}
	if len(resp.Result) == 0 {
		t.Fatal("result payload is empty")
	}

	scan, err := scans.GetByID(context.Background(), resp.ScanID)
	if err != nil {
		t.Fatalf("stored scan: %v", err)
	}
	if scan.Status != constants.ScanStatusParsed {
		t.Fatalf("scan status = %s", scan.Status)
	}
	if len(docs.rows) != 1 {
		t.Fatalf("documents stored = %d", len(docs.rows))
	}
	if chain.calls != 1 {
		t.Fatalf("chain calls = %d", chain.calls)
	}
}

func TestOCRProcessDedupe(t *testing.T) {
	chain := &countingChain{
		res:    docparse.RawOCRResult{Text: "OXXO TIENDA\nTotal $45.00", Confidence: 80},
		engine: "vision",
	}
	srv, _, _ := newTestServer(t, chain, fakePinger{})
	payload := []byte("same-content-twice")

	first := doRequest(t, srv, http.MethodPost, "/api/ocr-process", uploadBody(t, "a.jpg", payload))
	if first.Code != http.StatusOK {
		t.Fatalf("first upload status = %d", first.Code)
	}

	second := doRequest(t, srv, http.MethodPost, "/api/ocr-process", uploadBody(t, "b.png", payload))
	if second.Code != http.StatusOK {
		t.Fatalf("second upload status = %d", second.Code)
	}

	var resp ocrProcessResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Cached {
		t.Fatal("second upload of same bytes not served from cache")
	}
	if chain.calls != 1 {
		t.Fatalf("chain calls = %d, want 1", chain.calls)
	}
}

func TestOCRProcessRejectsBadInput(t *testing.T) {
	srv, _, _ := newTestServer(t, &countingChain{}, fakePinger{})

	cases := []struct {
		name string
		body string
	}{
		{"missing image", `{"filename":"a.jpg"}`},
		{"bad extension", `{"image":"aGVsbG8=","filename":"virus.exe"}`},
		{"bad base64", `{"image":"@@not-base64@@","filename":"a.jpg"}`},
		{"malformed json", `{"image":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, srv, http.MethodPost, "/api/ocr-process", bytes.NewReader([]byte(tc.body)))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestOCRProcessRecognitionFailure(t *testing.T) {
	chain := &countingChain{err: errors.New("all engines failed")}
	srv, scans, _ := newTestServer(t, chain, fakePinger{})

	rr := doRequest(t, srv, http.MethodPost, "/api/ocr-process", uploadBody(t, "blurry.jpg", []byte("noise")))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	for _, s := range scans.rows {
		if s.Status != constants.ScanStatusFailed {
			t.Fatalf("scan status = %s, want FAILED", s.Status)
		}
	}
}

func TestListScans(t *testing.T) {
	chain := &countingChain{
		res:    docparse.RawOCRResult{Text: "OXXO TIENDA\nTotal $45.00", Confidence: 80},
		engine: "tesseract",
	}
	srv, _, _ := newTestServer(t, chain, fakePinger{})
	doRequest(t, srv, http.MethodPost, "/api/ocr-process", uploadBody(t, "t.jpg", []byte("one")))

	rr := doRequest(t, srv, http.MethodGet, "/api/scans?limit=10", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var out []scanSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("scans = %d, want 1", len(out))
	}
	if out[0].Status != string(constants.ScanStatusParsed) {
		t.Fatalf("status = %q", out[0].Status)
	}
	if out[0].OCREngine != "tesseract" {
		t.Fatalf("engine = %q", out[0].OCREngine)
	}
}

func TestGetScan(t *testing.T) {
	chain := &countingChain{
		res:    docparse.RawOCRResult{Text: "OXXO TIENDA\nTotal $45.00", Confidence: 80},
		engine: "vision",
	}
	srv, _, _ := newTestServer(t, chain, fakePinger{})

	rr := doRequest(t, srv, http.MethodPost, "/api/ocr-process", uploadBody(t, "t.jpg", []byte("scan-detail")))
	var created ocrProcessResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/scans/"+created.ScanID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var detail scanDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.ID != created.ScanID {
		t.Fatalf("id = %s, want %s", detail.ID, created.ScanID)
	}
	if detail.Document == nil {
		t.Fatal("parsed scan should include its document")
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/scans/not-a-uuid", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/scans/"+uuid.NewString(), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing scan status = %d, want 404", rr.Code)
	}
}

func TestListReview(t *testing.T) {
	// Low engine confidence forces the review flag.
	chain := &countingChain{
		res:    docparse.RawOCRResult{Text: "OXXO TIENDA\nTotal $45.00", Confidence: 10},
		engine: "tesseract",
	}
	srv, _, _ := newTestServer(t, chain, fakePinger{})
	doRequest(t, srv, http.MethodPost, "/api/ocr-process", uploadBody(t, "low.jpg", []byte("low-conf")))

	rr := doRequest(t, srv, http.MethodGet, "/api/documents/review", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var out []documentSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("review docs = %d, want 1", len(out))
	}
	if out[0].Kind != string(constants.KindTicket) {
		t.Fatalf("kind = %q", out[0].Kind)
	}
}

func TestExportEndpoint(t *testing.T) {
	chain := &countingChain{
		res:    docparse.RawOCRResult{Text: "OXXO TIENDA\nTotal $45.00", Confidence: 80},
		engine: "vision",
	}
	srv, _, _ := newTestServer(t, chain, fakePinger{})
	doRequest(t, srv, http.MethodPost, "/api/ocr-process", uploadBody(t, "t.jpg", []byte("row")))

	rr := doRequest(t, srv, http.MethodGet, "/api/export", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd == "" {
		t.Fatal("missing Content-Disposition")
	}

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	got, err := f.GetCellValue("Comprobantes", "C2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "OXXO TIENDA" {
		t.Fatalf("C2 = %q", got)
	}
}

func TestExportRejectsBadDates(t *testing.T) {
	srv, _, _ := newTestServer(t, &countingChain{}, fakePinger{})
	rr := doRequest(t, srv, http.MethodGet, "/api/export?from=15-03-2026", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t, &countingChain{}, fakePinger{})
	rr := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	down, _, _ := newTestServer(t, &countingChain{}, fakePinger{err: errors.New("pool closed")})
	rr = doRequest(t, down, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}
