package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS match_results (
	id UUID PRIMARY KEY,
	method TEXT NOT NULL,
	distance TEXT NOT NULL,
	estimand TEXT NOT NULL,
	config JSONB NOT NULL,
	formula JSONB NOT NULL,
	payload JSONB NOT NULL,
	estimand_shifted BOOLEAN NOT NULL DEFAULT FALSE,
	total_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
	seed BIGINT NOT NULL DEFAULT 0,
	runtime_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_match_results_created_at
	ON match_results (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_match_results_method
	ON match_results (method);
`

// EnsureSchema creates the result tables if they do not exist yet.
// Idempotent; called on startup.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}
