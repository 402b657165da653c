package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

const createLeadsSQL = `
CREATE TABLE IF NOT EXISTS leads (
    id           UUID PRIMARY KEY,
    session_key  TEXT NOT NULL UNIQUE,
    user_id      TEXT NOT NULL,
    quiz_id      TEXT NOT NULL,
    quiz_version TEXT NOT NULL,
    answers      JSONB NOT NULL,
    result       TEXT NOT NULL DEFAULT '',
    email        TEXT NOT NULL DEFAULT '',
    submitted_at TIMESTAMPTZ NOT NULL,
    finalized    BOOLEAN NOT NULL DEFAULT FALSE
)`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createLeadsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS leads`)
			return err
		},
	)
}
