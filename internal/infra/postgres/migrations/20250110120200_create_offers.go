package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

const createOffersSQL = `
CREATE TABLE IF NOT EXISTS offers (
    id               BIGSERIAL PRIMARY KEY,
    personality_type TEXT NOT NULL,
    title            TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    position         INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS offers_personality_type_idx ON offers (personality_type)`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createOffersSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP INDEX IF EXISTS offers_personality_type_idx; DROP TABLE IF EXISTS offers`)
			return err
		},
	)
}
