package migrate

import (
	"context"
	"fmt"

	"graphfetch/internal/dbconn"
)

const systemTablesSQL = `
CREATE TABLE IF NOT EXISTS _entities (
    name        TEXT PRIMARY KEY,
    table_name  TEXT NOT NULL UNIQUE,
    definition  JSONB NOT NULL,
    created_at  TIMESTAMPTZ DEFAULT NOW(),
    updated_at  TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS _relations (
    name        TEXT PRIMARY KEY,
    source      TEXT NOT NULL REFERENCES _entities(name) ON DELETE CASCADE,
    target      TEXT NOT NULL REFERENCES _entities(name) ON DELETE CASCADE,
    definition  JSONB NOT NULL,
    created_at  TIMESTAMPTZ DEFAULT NOW(),
    updated_at  TIMESTAMPTZ DEFAULT NOW()
);
`

// Bootstrap installs the system tables metadata.LoadAll reads from and the
// helper SQL function pair the stored-function cache depends on. It assumes
// the target schema (default public) already exists, per the
// "pre-existing schema" resolution — it does not create one.
func Bootstrap(ctx context.Context, pool *dbconn.Pool) error {
	if _, err := pool.Exec(ctx, systemTablesSQL); err != nil {
		return fmt.Errorf("bootstrap system tables: %w", err)
	}
	if err := InstallHelpers(ctx, pool); err != nil {
		return fmt.Errorf("install helper functions: %w", err)
	}
	return nil
}

// InstallHelpers installs safe_create_fn and execute_if_exists_n<N> for
// every supported batch size. It is idempotent: every
// function is CREATE OR REPLACE, so re-running it on every process startup
// (as cmd/graphfetchd does) is safe.
func InstallHelpers(ctx context.Context, pool *dbconn.Pool) error {
	if _, err := pool.Exec(ctx, helperFunctionsSQL()); err != nil {
		return fmt.Errorf("install helper functions: %w", err)
	}
	return nil
}
