package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied on startup. Idempotent; a migration tool takes over
// once the shape stops churning.
const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id             UUID PRIMARY KEY,
	file_path      TEXT NOT NULL,
	file_name      TEXT NOT NULL,
	format         TEXT NOT NULL,
	content_hash   TEXT NOT NULL,
	status         TEXT NOT NULL,
	ocr_engine     TEXT NOT NULL DEFAULT '',
	ocr_confidence INT  NOT NULL DEFAULT 0,
	error_message  TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS scans_content_hash_idx ON scans (content_hash);
CREATE INDEX IF NOT EXISTS scans_status_idx ON scans (status);

CREATE TABLE IF NOT EXISTS documents (
	id             UUID PRIMARY KEY,
	scan_id        UUID NOT NULL REFERENCES scans (id) ON DELETE CASCADE,
	kind           TEXT NOT NULL,
	confidence     INT  NOT NULL,
	needs_review   BOOLEAN NOT NULL DEFAULT false,
	establishment  TEXT NOT NULL DEFAULT '',
	tax_id         TEXT NOT NULL DEFAULT '',
	issued_on      TEXT NOT NULL DEFAULT '',
	total          DOUBLE PRECISION,
	subtotal       DOUBLE PRECISION,
	iva            DOUBLE PRECISION,
	payment_method TEXT NOT NULL DEFAULT '',
	result         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS documents_scan_id_idx ON documents (scan_id);
CREATE INDEX IF NOT EXISTS documents_kind_idx ON documents (kind);
CREATE INDEX IF NOT EXISTS documents_needs_review_idx ON documents (needs_review) WHERE needs_review;
`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
