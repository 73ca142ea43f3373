// Package redis stores positions and flows in Redis and provides a distributed
// locker for multi-replica deployments.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
)

// DefaultPositionPrefix namespaces position keys.
const DefaultPositionPrefix = "chatflow:position:"

// farFuture is the index score of positions that never expire (2100-01-01).
const farFuture = 4102444800

// PositionStore implements ports.PositionStore using Redis.
type PositionStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	codec  codec.Codec
}

// Option configures the PositionStore.
type Option func(*PositionStore)

// WithTTL sets the expiration for positions.
func WithTTL(ttl time.Duration) Option {
	return func(s *PositionStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for positions.
func WithPrefix(prefix string) Option {
	return func(s *PositionStore) {
		s.prefix = prefix
	}
}

// WithCodec sets the byte encoding of stored positions.
func WithCodec(c codec.Codec) Option {
	return func(s *PositionStore) {
		s.codec = c
	}
}

// NewPositionStore creates a new Redis position store with options.
func NewPositionStore(address, password string, db int, opts ...Option) *PositionStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewPositionStoreFromClient(rdb, opts...)
}

// NewPositionStoreFromClient creates a new Redis position store from an existing client.
func NewPositionStoreFromClient(client *backend.Client, opts ...Option) *PositionStore {
	store := &PositionStore{
		client: client,
		prefix: DefaultPositionPrefix,
		ttl:    0, // No expiration by default
		codec:  codec.JSONCodec{},
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *PositionStore) key(conversationID string) string {
	return s.prefix + conversationID
}

func (s *PositionStore) indexKey() string {
	return s.prefix + "index"
}

// Save persists the position under its conversation id.
func (s *PositionStore) Save(ctx context.Context, pos *domain.Position) error {
	data, err := s.codec.Encode(pos)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()

	// Use 0 for no expiration if ttl is not set.
	pipe.Set(ctx, s.key(pos.ConversationID), data, s.ttl)

	// Score = Now + TTL, so List can prune entries whose key expired.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: pos.ConversationID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the position of a conversation.
func (s *PositionStore) Load(ctx context.Context, conversationID string) (*domain.Position, error) {
	val, err := s.client.Get(ctx, s.key(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return s.codec.Decode(val)
}

// Delete removes the position.
func (s *PositionStore) Delete(ctx context.Context, conversationID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(conversationID))
	pipe.ZRem(ctx, s.indexKey(), conversationID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the conversations with a live position, pruning expired
// entries from the index first.
func (s *PositionStore) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired positions: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *PositionStore) Close() error {
	return s.client.Close()
}
