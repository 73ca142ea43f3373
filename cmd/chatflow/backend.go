package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/pkg/adapters/file"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/adapters/postgres"
	"github.com/aretw0/chatflow/pkg/adapters/redis"
	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/persistence/middleware"
	"github.com/aretw0/chatflow/pkg/ports"
)

// backend is the storage selected by store.driver.
type backend struct {
	flows     ports.FlowRepository
	positions ports.PositionStore
	locker    ports.DistributedLocker
	close     func()
}

func (b *backend) Close() {
	if b.close != nil {
		b.close()
	}
}

func openBackend(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*backend, error) {
	be, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	mws, err := positionMiddlewares(cfg)
	if err != nil {
		be.Close()
		return nil, err
	}
	be.positions = middleware.Chain(be.positions, mws...)
	return be, nil
}

// positionMiddlewares masks sensitive variables first so that the masked
// values are what gets encrypted.
func positionMiddlewares(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskVariables) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.MaskVariables)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		enc := middleware.EncryptionConfig{}
		key, err := config.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		enc.ActiveKey = key
		for _, k := range cfg.FallbackKeys {
			fallback, err := config.DecodeKey(k)
			if err != nil {
				return nil, err
			}
			enc.FallbackKeys = append(enc.FallbackKeys, fallback)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return &backend{
			flows:     memory.NewFlowRepository(),
			positions: memory.NewPositionStore(),
		}, nil

	case config.DriverFile:
		return &backend{
			flows:     file.NewFlowRepository(filepath.Join(cfg.Dir, "flows"), codec.Format(cfg.FlowFormat)),
			positions: file.NewPositionStore(filepath.Join(cfg.Dir, "positions")),
		}, nil

	case config.DriverRedis:
		posCodec, err := codec.CodecByName(cfg.PositionCodec)
		if err != nil {
			return nil, err
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Using redis store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return &backend{
			flows: redis.NewFlowRepository(client, cfg.RedisPrefix+"flow:"),
			positions: redis.NewPositionStoreFromClient(client,
				redis.WithPrefix(cfg.RedisPrefix+"position:"),
				redis.WithTTL(cfg.PositionTTL),
				redis.WithCodec(posCodec),
			),
			locker: redis.NewLocker(client, cfg.RedisPrefix),
			close:  func() { _ = client.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		flows, err := postgres.NewFlowRepository(ctx, pool, postgres.WithLogger(logger))
		if err != nil {
			pool.Close()
			return nil, err
		}
		positions, err := postgres.NewPositionStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Using postgres store")
		return &backend{flows: flows, positions: positions, close: pool.Close}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
