// Package config loads the chatflow configuration from defaults, an optional
// YAML file, a local .env file and CHATFLOW_* environment variables, in
// increasing order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/conversation"
)

// EnvPrefix prefixes every environment override, e.g. CHATFLOW_SERVER_ADDR.
const EnvPrefix = "CHATFLOW"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config is the root configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Engine EngineConfig `mapstructure:"engine"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	Dir           string        `mapstructure:"dir"`
	FlowFormat    string        `mapstructure:"flow_format"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	PositionTTL   time.Duration `mapstructure:"position_ttl"`
	PositionCodec string        `mapstructure:"position_codec"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`

	// EncryptionKey, when set, is a base64 AES-256 key that encrypts stored
	// positions. FallbackKeys decrypt positions written before a rotation.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	MaskVariables []string `mapstructure:"mask_variables"`
}

type EngineConfig struct {
	MaxSteps        int    `mapstructure:"max_steps"`
	Reprompt        bool   `mapstructure:"reprompt"`
	InterruptPolicy string `mapstructure:"interrupt_policy"`

	// ReplyTimeout escalates conversations that awaited a reply this long.
	// Zero disables the sweeper.
	ReplyTimeout  time.Duration `mapstructure:"reply_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type CacheConfig struct {
	Flows int `mapstructure:"flows"`
}

// SetDefaults initializes default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", string(logging.FormatText))

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dir", ".chatflow")
	v.SetDefault("store.flow_format", string(codec.FormatJSON))
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_prefix", "chatflow:")
	v.SetDefault("store.position_ttl", "0s")
	v.SetDefault("store.position_codec", "json")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("store.mask_variables", []string{})

	v.SetDefault("engine.max_steps", 64)
	v.SetDefault("engine.reprompt", true)
	v.SetDefault("engine.interrupt_policy", string(conversation.InterruptIgnore))
	v.SetDefault("engine.reply_timeout", "0s")
	v.SetDefault("engine.sweep_interval", "1m")

	v.SetDefault("cache.flows", 256)
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. An empty path looks for chatflow.yaml in the
// working directory and proceeds without it when absent.
func Load(path string) (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("chatflow")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	if _, err := conversation.ParseInterruptPolicy(c.Engine.InterruptPolicy); err != nil {
		errs = append(errs, fmt.Errorf("engine.interrupt_policy: %w", err))
	}
	if c.Engine.MaxSteps < 1 {
		errs = append(errs, errors.New("engine.max_steps must be a positive integer"))
	}
	if c.Engine.ReplyTimeout > 0 && c.Engine.SweepInterval <= 0 {
		errs = append(errs, errors.New("engine.sweep_interval must be positive when engine.reply_timeout is set"))
	}
	if c.Cache.Flows < 0 {
		errs = append(errs, errors.New("cache.flows must not be negative"))
	}
	if _, err := codec.CodecByName(c.Store.PositionCodec); err != nil {
		errs = append(errs, fmt.Errorf("store.position_codec: %w", err))
	}

	if c.Store.EncryptionKey != "" {
		if _, err := DecodeKey(c.Store.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("store.encryption_key: %w", err))
		}
	} else if len(c.Store.FallbackKeys) > 0 {
		errs = append(errs, errors.New("store.fallback_keys requires store.encryption_key"))
	}
	for i, k := range c.Store.FallbackKeys {
		if _, err := DecodeKey(k); err != nil {
			errs = append(errs, fmt.Errorf("store.fallback_keys[%d]: %w", i, err))
		}
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required for the file driver"))
		}
		switch codec.Format(c.Store.FlowFormat) {
		case codec.FormatJSON, codec.FormatYAML:
		default:
			errs = append(errs, fmt.Errorf("store.flow_format: unknown format %q", c.Store.FlowFormat))
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis driver"))
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	return errors.Join(errs...)
}

// DecodeKey decodes a base64 encryption key and checks it is 32 bytes long.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key is %d bytes, want 32", len(key))
	}
	return key, nil
}
