package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
)

const (
	sqlSavePosition = `
        INSERT INTO positions (conversation_id, tenant, flow_name, data, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (conversation_id) DO UPDATE SET
            tenant = EXCLUDED.tenant,
            flow_name = EXCLUDED.flow_name,
            data = EXCLUDED.data,
            updated_at = EXCLUDED.updated_at;
    `
	sqlLoadPosition   = `SELECT data FROM positions WHERE conversation_id = $1;`
	sqlDeletePosition = `DELETE FROM positions WHERE conversation_id = $1;`
	sqlListPositions  = `SELECT conversation_id FROM positions ORDER BY conversation_id ASC;`
)

// PositionStore implements ports.PositionStore on PostgreSQL.
type PositionStore struct {
	pool  DBPool
	codec codec.JSONCodec
}

// NewPositionStore creates a position store and verifies the connection.
func NewPositionStore(ctx context.Context, pool DBPool) (*PositionStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PositionStore{pool: pool}, nil
}

// Save upserts the position document.
func (s *PositionStore) Save(ctx context.Context, pos *domain.Position) error {
	data, err := s.codec.Encode(pos)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, sqlSavePosition, pos.ConversationID, pos.Tenant, pos.FlowName, data, pos.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// Load retrieves the position of a conversation.
func (s *PositionStore) Load(ctx context.Context, conversationID string) (*domain.Position, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, sqlLoadPosition, conversationID).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to load position: %w", err)
	}
	return s.codec.Decode(data)
}

// Delete removes the position of a conversation.
func (s *PositionStore) Delete(ctx context.Context, conversationID string) error {
	if _, err := s.pool.Exec(ctx, sqlDeletePosition, conversationID); err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

// List returns the ids of every stored position.
func (s *PositionStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, sqlListPositions)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan position ids: %w", err)
	}
	return ids, nil
}
