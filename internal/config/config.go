package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"conditionScope/internal/indexer"
)

const (
	SinkJSONL    = "jsonl"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"

	CursorFile     = "file"
	CursorPostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	ChainID           uint64
	CoreAddress       string
	DeployBlock       uint64
	From              *uint64
	RangeWidth        int64
	Resolved          bool
	Canceled          bool
	Parallelism       int
	MaxRetries        int
	RetryBackoff      time.Duration
	Sinks             []string
	Out               string
	PGDSN             string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	Checkpoint        string
	CheckpointEnabled bool
	Cursor            string
	Schedule          string
	LogLevel          string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SYNCER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("range-width", int64(indexer.DefaultRangeWidth))
	v.SetDefault("resolved", true)
	v.SetDefault("canceled", true)
	v.SetDefault("parallelism", 0)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("sink", []string{SinkJSONL})
	v.SetDefault("out", "./data/conditions.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("cursor", CursorFile)
	v.SetDefault("schedule", "@every 1m")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		ChainID:           v.GetUint64("chain-id"),
		CoreAddress:       v.GetString("core-address"),
		DeployBlock:       v.GetUint64("deploy-block"),
		RangeWidth:        v.GetInt64("range-width"),
		Resolved:          v.GetBool("resolved"),
		Canceled:          v.GetBool("canceled"),
		Parallelism:       v.GetInt("parallelism"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		Sinks:             getStringSlice(v, "sink"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		RedisAddr:         v.GetString("redis-addr"),
		RedisPassword:     v.GetString("redis-password"),
		RedisDB:           v.GetInt("redis-db"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		Cursor:            strings.ToLower(v.GetString("cursor")),
		Schedule:          v.GetString("schedule"),
		LogLevel:          v.GetString("log-level"),
	}
	if v.IsSet("from") {
		from := v.GetUint64("from")
		cfg.From = &from
	}

	return cfg, nil
}

// Validate rejects settings that would fail before any chain access.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required: %w", indexer.ErrInvalidConfig)
	}
	if c.CoreAddress == "" {
		return fmt.Errorf("core address is required: %w", indexer.ErrInvalidConfig)
	}
	if c.RangeWidth < 0 {
		return fmt.Errorf("range width %d is negative: %w", c.RangeWidth, indexer.ErrInvalidConfig)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism %d is negative: %w", c.Parallelism, indexer.ErrInvalidConfig)
	}
	if len(c.Sinks) == 0 {
		return fmt.Errorf("at least one sink is required: %w", indexer.ErrInvalidConfig)
	}
	for _, sink := range c.Sinks {
		switch sink {
		case SinkJSONL:
			if c.Out == "" {
				return fmt.Errorf("output path is required: %w", indexer.ErrInvalidConfig)
			}
		case SinkPostgres:
			if c.PGDSN == "" {
				return fmt.Errorf("pg dsn is required for the postgres sink: %w", indexer.ErrInvalidConfig)
			}
		case SinkRedis:
			if c.RedisAddr == "" {
				return fmt.Errorf("redis addr is required for the redis sink: %w", indexer.ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("unknown sink %q: %w", sink, indexer.ErrInvalidConfig)
		}
	}
	switch c.Cursor {
	case CursorFile:
	case CursorPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for the postgres cursor: %w", indexer.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown cursor store %q: %w", c.Cursor, indexer.ErrInvalidConfig)
	}
	return nil
}

// HasSink reports whether name is one of the configured sinks.
func (c Config) HasSink(name string) bool {
	for _, sink := range c.Sinks {
		if sink == name {
			return true
		}
	}
	return false
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
