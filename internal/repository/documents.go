package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document) error
	GetByScanID(ctx context.Context, scanID uuid.UUID) (*entity.Document, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*entity.Document, error)
	ListNeedsReview(ctx context.Context, limit int) ([]*entity.Document, error)
}

type documentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentRepository {
	return &documentRepository{pool: pool, logger: logger}
}

const documentColumns = `id, scan_id, kind, confidence, needs_review,
	establishment, tax_id, issued_on, total, subtotal, iva, payment_method,
	result, created_at`

func (r *documentRepository) Create(ctx context.Context, d *entity.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, scan_id, kind, confidence, needs_review,
			establishment, tax_id, issued_on, total, subtotal, iva,
			payment_method, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.ScanID, d.Kind, d.Confidence, d.NeedsReview,
		d.Establishment, d.TaxID, d.IssuedOn, d.Total, d.Subtotal, d.IVA,
		d.PaymentMethod, d.Result,
	)
	if err != nil {
		r.logger.Error("failed to create document", "scan_id", d.ScanID, "error", err)
		return common.NewAppError("DB_ERROR", "create document", err)
	}
	return nil
}

func (r *documentRepository) GetByScanID(ctx context.Context, scanID uuid.UUID) (*entity.Document, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE scan_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, scanID)
	return documentScan(row)
}

func (r *documentRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*entity.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at`, from, to)
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "list documents", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (r *documentRepository) ListNeedsReview(ctx context.Context, limit int) ([]*entity.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE needs_review
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "list documents", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func collectDocuments(rows pgx.Rows) ([]*entity.Document, error) {
	var out []*entity.Document
	for rows.Next() {
		d, err := documentScan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func documentScan(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(&d.ID, &d.ScanID, &d.Kind, &d.Confidence, &d.NeedsReview,
		&d.Establishment, &d.TaxID, &d.IssuedOn, &d.Total, &d.Subtotal,
		&d.IVA, &d.PaymentMethod, &d.Result, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "document row", err)
	}
	return &d, nil
}
