// Package postgres stores flows and positions in PostgreSQL through pgx.
//
// Flows are kept flat: one row per flow plus one row per node and per edge,
// so the graph can be inspected with plain SQL. Positions are a single JSONB
// document keyed by conversation id.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the tables used by this package. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS flows (
    tenant          TEXT        NOT NULL,
    name            TEXT        NOT NULL,
    trigger_keyword TEXT        NOT NULL DEFAULT '',
    is_active       BOOLEAN     NOT NULL DEFAULT FALSE,
    updated_at      TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (tenant, name)
);

CREATE TABLE IF NOT EXISTS flow_nodes (
    tenant    TEXT    NOT NULL,
    flow_name TEXT    NOT NULL,
    ord       INTEGER NOT NULL,
    id        TEXT    NOT NULL,
    type      TEXT    NOT NULL,
    data      JSONB   NOT NULL DEFAULT '{}',
    pos_x     DOUBLE PRECISION NOT NULL DEFAULT 0,
    pos_y     DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (tenant, flow_name, id),
    FOREIGN KEY (tenant, flow_name) REFERENCES flows (tenant, name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS flow_edges (
    tenant        TEXT    NOT NULL,
    flow_name     TEXT    NOT NULL,
    ord           INTEGER NOT NULL,
    id            TEXT    NOT NULL,
    source        TEXT    NOT NULL,
    target        TEXT    NOT NULL,
    source_handle TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (tenant, flow_name, id),
    FOREIGN KEY (tenant, flow_name) REFERENCES flows (tenant, name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS positions (
    conversation_id TEXT        PRIMARY KEY,
    tenant          TEXT        NOT NULL DEFAULT '',
    flow_name       TEXT        NOT NULL,
    data            JSONB       NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, pool DBPool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
