package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const envPrefix = "MARKET_"

type Config struct {
	Server struct {
		HTTPAddress string   `yaml:"http_address"`
		GRPCAddress string   `yaml:"grpc_address"`
		CORSOrigins []string `yaml:"cors_origins"`
		Faucet      bool     `yaml:"faucet"`
	} `yaml:"server"`
	Store struct {
		// sqlite, mysql, postgres or leveldb
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"store"`
	Payment struct {
		// sql or redis
		Driver string `yaml:"driver"`
	} `yaml:"payment"`
	Redis struct {
		Address  string `yaml:"address"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`
	Idempotency struct {
		// redis or memory
		Driver string        `yaml:"driver"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"idempotency"`
	Workers struct {
		Count     int `yaml:"count"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"workers"`
	Auth struct {
		TokenMaxAge time.Duration `yaml:"token_max_age"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.Server.HTTPAddress = ":8080"
	cfg.Server.GRPCAddress = ":50051"
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DSN = "marketplace.db"
	cfg.Payment.Driver = "sql"
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.PoolSize = 100
	cfg.Idempotency.Driver = "memory"
	cfg.Idempotency.TTL = 24 * time.Hour
	cfg.Workers.Count = 10
	cfg.Workers.QueueSize = 10000
	cfg.Auth.TokenMaxAge = 5 * time.Minute
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// Load layers the YAML file at path (optional), the .env file at envFile
// (optional) and MARKET_* environment variables over the defaults.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("loading env file: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_ADDRESS":       &cfg.Server.HTTPAddress,
		"GRPC_ADDRESS":       &cfg.Server.GRPCAddress,
		"STORE_DRIVER":       &cfg.Store.Driver,
		"STORE_DSN":          &cfg.Store.DSN,
		"PAYMENT_DRIVER":     &cfg.Payment.Driver,
		"REDIS_ADDRESS":      &cfg.Redis.Address,
		"IDEMPOTENCY_DRIVER": &cfg.Idempotency.Driver,
		"LOG_LEVEL":          &cfg.Log.Level,
		"LOG_FORMAT":         &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"REDIS_POOL_SIZE": &cfg.Redis.PoolSize,
		"WORKERS":         &cfg.Workers.Count,
		"QUEUE_SIZE":      &cfg.Workers.QueueSize,
	}
	for key, dst := range ints {
		if v, ok := lookup(envPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"IDEMPOTENCY_TTL": &cfg.Idempotency.TTL,
		"TOKEN_MAX_AGE":   &cfg.Auth.TokenMaxAge,
	}
	for key, dst := range durations {
		if v, ok := lookup(envPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup(envPrefix + "FAUCET"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sFAUCET: %w", envPrefix, err)
		}
		cfg.Server.Faucet = b
	}
	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok {
		cfg.Server.CORSOrigins = splitList(v)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "mysql", "postgres", "leveldb":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Payment.Driver {
	case "sql", "redis":
	default:
		return fmt.Errorf("unknown payment driver %q", c.Payment.Driver)
	}
	if c.Payment.Driver == "sql" && c.Store.Driver == "leveldb" {
		return errors.New("payment driver sql requires a sql store driver")
	}
	switch c.Idempotency.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown idempotency driver %q", c.Idempotency.Driver)
	}
	if c.Workers.Count < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.Workers.QueueSize < 0 {
		return errors.New("queue size must not be negative")
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis connection.
func (c Config) UsesRedis() bool {
	return c.Payment.Driver == "redis" || c.Idempotency.Driver == "redis"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
