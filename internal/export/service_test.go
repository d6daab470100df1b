package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/grupoeventa/comprobantes/constants"
	"github.com/grupoeventa/comprobantes/internal/entity"
)

type fakeDocs struct {
	docs     []*entity.Document
	gotFrom  time.Time
	gotTo    time.Time
	listErrs error
}

func (f *fakeDocs) Create(context.Context, *entity.Document) error { return nil }

func (f *fakeDocs) GetByScanID(context.Context, uuid.UUID) (*entity.Document, error) {
	return nil, nil
}

func (f *fakeDocs) ListBetween(_ context.Context, from, to time.Time) ([]*entity.Document, error) {
	f.gotFrom, f.gotTo = from, to
	return f.docs, f.listErrs
}

func (f *fakeDocs) ListNeedsReview(context.Context, int) ([]*entity.Document, error) {
	return nil, nil
}

func fp(v float64) *float64 { return &v }

func TestExportDocumentsXLSX(t *testing.T) {
	docs := &fakeDocs{docs: []*entity.Document{
		{
			Kind:          constants.KindTicket,
			Confidence:    91,
			Establishment: "OXXO TIENDA",
			TaxID:         "OXX970814HS9",
			IssuedOn:      "12/05/2026",
			Total:         fp(50.50),
			Subtotal:      fp(43.53),
			IVA:           fp(6.97),
			PaymentMethod: "Efectivo",
		},
		{
			Kind:          constants.KindInvoice,
			Confidence:    45,
			NeedsReview:   true,
			Establishment: "Eventos del Valle SA de CV",
			TaxID:         "EVA123456AB1",
			IssuedOn:      "01/02/2026",
			Total:         fp(1160),
		},
	}}
	svc := NewService(docs, nil)

	raw, err := svc.ExportDocumentsXLSX(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ExportDocumentsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	cell := func(ref string) string {
		t.Helper()
		v, err := f.GetCellValue(sheet, ref)
		if err != nil {
			t.Fatalf("cell %s: %v", ref, err)
		}
		return v
	}

	if cell("A1") != "Fecha" || cell("G1") != "Total" {
		t.Errorf("header row = %q / %q", cell("A1"), cell("G1"))
	}
	if cell("C2") != "OXXO TIENDA" {
		t.Errorf("C2 = %q", cell("C2"))
	}
	if cell("G2") != "50.5" {
		t.Errorf("G2 = %q, want 50.5", cell("G2"))
	}
	if cell("J2") != "" {
		t.Errorf("J2 = %q, want empty review flag", cell("J2"))
	}
	if cell("B3") != "FACTURA" {
		t.Errorf("B3 = %q", cell("B3"))
	}
	if cell("J3") != "SI" {
		t.Errorf("J3 = %q, want SI", cell("J3"))
	}
	// Undetected amounts stay blank, not zero.
	if cell("E3") != "" {
		t.Errorf("E3 = %q, want empty subtotal", cell("E3"))
	}
}

func TestExportWindowNormalization(t *testing.T) {
	docs := &fakeDocs{}
	svc := NewService(docs, nil)

	from := time.Date(2026, 5, 1, 15, 30, 0, 0, time.UTC)
	to := time.Date(2026, 5, 31, 8, 0, 0, 0, time.UTC)
	if _, err := svc.ExportDocumentsXLSX(context.Background(), &from, &to); err != nil {
		t.Fatalf("ExportDocumentsXLSX: %v", err)
	}

	wantFrom := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if !docs.gotFrom.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", docs.gotFrom, wantFrom)
	}
	if !docs.gotTo.Equal(wantTo) {
		t.Errorf("to = %v, want %v (exclusive end)", docs.gotTo, wantTo)
	}
}
