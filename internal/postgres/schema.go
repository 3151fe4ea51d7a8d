package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS foods (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		category        TEXT NOT NULL DEFAULT '',
		type            TEXT NOT NULL DEFAULT '',
		price           DOUBLE PRECISION NOT NULL CHECK (price >= 0),
		available       BOOLEAN NOT NULL DEFAULT TRUE,
		image_url       TEXT,
		image_public_id TEXT,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS foods_created_at_idx ON foods (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		table_number INTEGER NOT NULL,
		food_name    TEXT NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		type         TEXT NOT NULL DEFAULT '',
		quantity     INTEGER NOT NULL CHECK (quantity > 0),
		price        DOUBLE PRECISION NOT NULL,
		status       TEXT NOT NULL,
		user_email   TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		seq          BIGSERIAL
	)`,
	// seq breaks created_at ties in insertion order
	`ALTER TABLE orders ADD COLUMN IF NOT EXISTS seq BIGSERIAL`,
	`DROP INDEX IF EXISTS orders_created_at_idx`,
	`CREATE INDEX IF NOT EXISTS orders_created_at_seq_idx ON orders (created_at DESC, seq DESC)`,
}

// Migrate creates the tables when missing. It is safe to run on every start.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}
	return nil
}
