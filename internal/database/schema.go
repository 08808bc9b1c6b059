package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the todos table and its status index. Each
// statement is idempotent so the schema can be ensured on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS todos (
		id          BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		title       VARCHAR(255) NOT NULL CHECK (btrim(title) <> ''),
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'pending'
		            CHECK (status IN ('pending', 'in-progress', 'completed')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (updated_at >= created_at)
	)`,
	`CREATE INDEX IF NOT EXISTS todos_status_idx ON todos (status)`,
}

// EnsureSchema creates the todos table if it does not exist yet
func EnsureSchema(ctx context.Context, db sqlx.ExecerContext) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
