package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/grupoeventa/comprobantes/internal/entity"
	"github.com/grupoeventa/comprobantes/internal/repository"
)

// Service produces XLSX workbooks from parsed documents, in the layout
// the finance team imports into the events ERP.
type Service struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

const sheet = "Comprobantes"

var headers = []string{
	"Fecha",
	"Tipo",
	"Establecimiento / Emisor",
	"RFC",
	"Subtotal",
	"IVA",
	"Total",
	"Método de pago",
	"Confianza",
	"Revisar",
}

// ExportDocumentsXLSX returns an XLSX workbook (as bytes) for documents
// registered in the date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> everything.
func (s *Service) ExportDocumentsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	fromDate, toDate := normalizeWindow(from, to)
	docs, err := s.docs.ListBetween(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, d := range docs {
		writeDocumentRow(f, i+2, d)
	}

	_ = f.SetColWidth(sheet, "A", "A", 14) // fecha
	_ = f.SetColWidth(sheet, "B", "B", 10) // tipo
	_ = f.SetColWidth(sheet, "C", "C", 36) // establecimiento
	_ = f.SetColWidth(sheet, "D", "D", 16) // rfc
	_ = f.SetColWidth(sheet, "E", "G", 12) // montos
	_ = f.SetColWidth(sheet, "H", "H", 18) // método de pago

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeDocumentRow(f *excelize.File, row int, d *entity.Document) {
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	writeAmount := func(col int, v *float64) {
		if v != nil {
			write(col, *v)
		}
	}

	write(1, d.IssuedOn)
	write(2, string(d.Kind))
	write(3, d.Establishment)
	write(4, d.TaxID)
	writeAmount(5, d.Subtotal)
	writeAmount(6, d.IVA)
	writeAmount(7, d.Total)
	write(8, d.PaymentMethod)
	write(9, d.Confidence)
	if d.NeedsReview {
		write(10, "SI")
	}
}

func normalizeWindow(from, to *time.Time) (time.Time, time.Time) {
	dateOnly := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	var fromDate time.Time
	if from != nil {
		fromDate = dateOnly(*from)
	}

	var toDate time.Time
	switch {
	case to != nil:
		toDate = dateOnly(*to).AddDate(0, 0, 1) // inclusive end of day
	case from != nil:
		toDate = dateOnly(time.Now().UTC()).AddDate(0, 0, 1)
	default:
		toDate = dateOnly(time.Now().UTC()).AddDate(0, 0, 1)
	}
	return fromDate, toDate
}
