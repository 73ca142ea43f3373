package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
)

var (
	nodeColumns = []string{"tenant", "flow_name", "ord", "id", "type", "data", "pos_x", "pos_y"}
	edgeColumns = []string{"tenant", "flow_name", "ord", "id", "source", "target", "source_handle"}
)

const (
	sqlUpsertFlow = `
        INSERT INTO flows (tenant, name, trigger_keyword, is_active, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (tenant, name) DO UPDATE SET
            trigger_keyword = EXCLUDED.trigger_keyword,
            is_active = EXCLUDED.is_active,
            updated_at = EXCLUDED.updated_at;
    `
	sqlDeleteNodes = `DELETE FROM flow_nodes WHERE tenant = $1 AND flow_name = $2;`
	sqlDeleteEdges = `DELETE FROM flow_edges WHERE tenant = $1 AND flow_name = $2;`
	sqlDeleteFlow  = `DELETE FROM flows WHERE tenant = $1 AND name = $2;`
	sqlGetFlow     = `
        SELECT trigger_keyword, is_active, updated_at
        FROM flows
        WHERE tenant = $1 AND name = $2;
    `
	sqlGetNodes = `
        SELECT id, type, data, pos_x, pos_y
        FROM flow_nodes
        WHERE tenant = $1 AND flow_name = $2
        ORDER BY ord ASC;
    `
	sqlGetEdges = `
        SELECT id, source, target, source_handle
        FROM flow_edges
        WHERE tenant = $1 AND flow_name = $2
        ORDER BY ord ASC;
    `
	sqlListFlows = `SELECT name FROM flows WHERE tenant = $1 ORDER BY name ASC;`
)

// FlowRepository implements ports.FlowRepository on PostgreSQL.
type FlowRepository struct {
	pool   DBPool
	logger *slog.Logger
}

// Option configures the postgres adapters.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report rollback failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewFlowRepository creates a repository and verifies the connection.
func NewFlowRepository(ctx context.Context, pool DBPool, opts ...Option) (*FlowRepository, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	o := buildOptions(opts)
	return &FlowRepository{pool: pool, logger: o.logger}, nil
}

// Put replaces the flow and its whole graph in one transaction.
func (r *FlowRepository) Put(ctx context.Context, f *domain.Flow) error {
	rec, err := codec.FromFlow(f)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", "err", rollbackErr)
		}
	}()

	if _, err := tx.Exec(ctx, sqlUpsertFlow, f.Tenant, f.Name, f.TriggerKeyword, f.IsActive, f.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to upsert flow: %w", err)
	}
	if _, err := tx.Exec(ctx, sqlDeleteNodes, f.Tenant, f.Name); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}
	if _, err := tx.Exec(ctx, sqlDeleteEdges, f.Tenant, f.Name); err != nil {
		return fmt.Errorf("failed to clear edges: %w", err)
	}
	if err := copyNodes(ctx, tx, rec); err != nil {
		return err
	}
	if err := copyEdges(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func copyNodes(ctx context.Context, tx pgx.Tx, rec codec.Record) error {
	if len(rec.Nodes) == 0 {
		return nil
	}
	rows := make([][]any, len(rec.Nodes))
	for i, n := range rec.Nodes {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("node %q: %w", n.ID, err)
		}
		rows[i] = []any{rec.Tenant, rec.FlowName, i, n.ID, string(n.Type), data, n.Position.X, n.Position.Y}
	}
	count, err := tx.CopyFrom(ctx, pgx.Identifier{"flow_nodes"}, nodeColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy nodes: %w", err)
	}
	if int(count) != len(rows) {
		return fmt.Errorf("mismatch in copied nodes count: expected %d, got %d", len(rows), count)
	}
	return nil
}

func copyEdges(ctx context.Context, tx pgx.Tx, rec codec.Record) error {
	if len(rec.Edges) == 0 {
		return nil
	}
	rows := make([][]any, len(rec.Edges))
	for i, e := range rec.Edges {
		rows[i] = []any{rec.Tenant, rec.FlowName, i, e.ID, e.Source, e.Target, e.SourceHandle}
	}
	count, err := tx.CopyFrom(ctx, pgx.Identifier{"flow_edges"}, edgeColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy edges: %w", err)
	}
	if int(count) != len(rows) {
		return fmt.Errorf("mismatch in copied edges count: expected %d, got %d", len(rows), count)
	}
	return nil
}

// Get loads a flow with its nodes and edges.
func (r *FlowRepository) Get(ctx context.Context, tenant, name string) (*domain.Flow, error) {
	rec := codec.Record{Tenant: tenant, FlowName: name}
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, sqlGetFlow, tenant, name).Scan(&rec.TriggerKeyword, &rec.IsActive, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to query flow: %w", err)
	}
	rec.UpdatedAt = updatedAt.UTC()

	if rec.Nodes, err = r.nodes(ctx, tenant, name); err != nil {
		return nil, err
	}
	if rec.Edges, err = r.edges(ctx, tenant, name); err != nil {
		return nil, err
	}
	return rec.ToFlow()
}

func (r *FlowRepository) nodes(ctx context.Context, tenant, name string) ([]codec.NodeRecord, error) {
	rows, err := r.pool.Query(ctx, sqlGetNodes, tenant, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []codec.NodeRecord
	for rows.Next() {
		var (
			nr      codec.NodeRecord
			variant string
			data    []byte
		)
		if err := rows.Scan(&nr.ID, &variant, &data, &nr.Position.X, &nr.Position.Y); err != nil {
			return nil, fmt.Errorf("failed to scan node row: %w", err)
		}
		nr.Type = domain.Variant(variant)
		if err := json.Unmarshal(data, &nr.Data); err != nil {
			return nil, fmt.Errorf("node %q: failed to decode data: %w", nr.ID, err)
		}
		nodes = append(nodes, nr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return nodes, nil
}

func (r *FlowRepository) edges(ctx context.Context, tenant, name string) ([]domain.Edge, error) {
	rows, err := r.pool.Query(ctx, sqlGetEdges, tenant, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []domain.Edge
	for rows.Next() {
		var e domain.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.SourceHandle); err != nil {
			return nil, fmt.Errorf("failed to scan edge row: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return edges, nil
}

// Delete removes the flow. Nodes and edges go with it through ON DELETE CASCADE.
func (r *FlowRepository) Delete(ctx context.Context, tenant, name string) error {
	if _, err := r.pool.Exec(ctx, sqlDeleteFlow, tenant, name); err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	return nil
}

// List loads every flow of the tenant, ordered by name.
func (r *FlowRepository) List(ctx context.Context, tenant string) ([]*domain.Flow, error) {
	rows, err := r.pool.Query(ctx, sqlListFlows, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan flow names: %w", err)
	}

	flows := make([]*domain.Flow, 0, len(names))
	for _, name := range names {
		f, err := r.Get(ctx, tenant, name)
		if errors.Is(err, domain.ErrFlowNotFound) {
			// Deleted between the listing and the load.
			continue
		}
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return flows, nil
}
