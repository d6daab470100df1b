package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grupoeventa/comprobantes/constants"
	"github.com/grupoeventa/comprobantes/internal/common"
	"github.com/grupoeventa/comprobantes/internal/entity"
)

type ScanRepository interface {
	Create(ctx context.Context, s *entity.Scan) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Scan, error)
	FindByContentHash(ctx context.Context, hash string) (*entity.Scan, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	MarkOCROK(ctx context.Context, id uuid.UUID, engine string, confidence int) error
	MarkParsed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	ListRecent(ctx context.Context, limit int) ([]*entity.Scan, error)
}

type scanRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewScanRepository(pool *pgxpool.Pool, logger *slog.Logger) ScanRepository {
	return &scanRepository{pool: pool, logger: logger}
}

const scanColumns = `id, file_path, file_name, format, content_hash, status,
	ocr_engine, ocr_confidence, error_message, created_at, updated_at`

func (r *scanRepository) Create(ctx context.Context, s *entity.Scan) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = constants.ScanStatusQueued
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO scans (id, file_path, file_name, format, content_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.FilePath, s.FileName, s.Format, s.ContentHash, s.Status,
	)
	if err != nil {
		r.logger.Error("failed to create scan", "file_name", s.FileName, "error", err)
		return common.NewAppError("DB_ERROR", "create scan", err)
	}
	return nil
}

func (r *scanRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Scan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = $1`, id)
	return scanScan(row)
}

// FindByContentHash returns the most recent scan of the same file bytes,
// or ErrNotFound.
func (r *scanRepository) FindByContentHash(ctx context.Context, hash string) (*entity.Scan, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+scanColumns+` FROM scans
		WHERE content_hash = $1
		ORDER BY created_at DESC
		LIMIT 1`, hash)
	return scanScan(row)
}

func (r *scanRepository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, `
		UPDATE scans SET status = $2, updated_at = now() WHERE id = $1`,
		constants.ScanStatusRunning)
}

func (r *scanRepository) MarkOCROK(ctx context.Context, id uuid.UUID, engine string, confidence int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scans
		SET status = $2, ocr_engine = $3, ocr_confidence = $4, updated_at = now()
		WHERE id = $1`,
		id, constants.ScanStatusOCROK, engine, confidence)
	if err != nil {
		return common.NewAppError("DB_ERROR", "update scan", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *scanRepository) MarkParsed(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, `
		UPDATE scans SET status = $2, updated_at = now() WHERE id = $1`,
		constants.ScanStatusParsed)
}

func (r *scanRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scans
		SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1`,
		id, constants.ScanStatusFailed, message)
	if err != nil {
		return common.NewAppError("DB_ERROR", "update scan", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *scanRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Scan, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+scanColumns+` FROM scans
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "list scans", err)
	}
	defer rows.Close()

	var out []*entity.Scan
	for rows.Next() {
		s, err := scanScan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *scanRepository) setStatus(ctx context.Context, id uuid.UUID, sql string, status constants.ScanStatus) error {
	tag, err := r.pool.Exec(ctx, sql, id, status)
	if err != nil {
		return common.NewAppError("DB_ERROR", "update scan", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanScan(row pgx.Row) (*entity.Scan, error) {
	var s entity.Scan
	err := row.Scan(&s.ID, &s.FilePath, &s.FileName, &s.Format, &s.ContentHash,
		&s.Status, &s.OCREngine, &s.OCRConfidence, &s.ErrorMessage,
		&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "scan row", err)
	}
	return &s, nil
}
