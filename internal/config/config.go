package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full server configuration, read from an optional YAML file
// with environment overrides. Without a file, environment variables alone
// are enough to run.
type Config struct {
	Env        string `yaml:"env" env:"CAMPUS_ENV" env-default:"local"`
	DB         `yaml:"db"`
	HTTPServer `yaml:"http_server"`
	Session    `yaml:"session"`
}

type DB struct {
	// DSN empty means the server runs on in-memory stores.
	DSN string `yaml:"dsn" env:"CAMPUS_PG_DSN"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"CAMPUS_HTTP_ADDR" env-default:":8080"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"CAMPUS_HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"CAMPUS_HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"CAMPUS_HTTP_WRITE_TIMEOUT" env-default:"15s"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"CAMPUS_HTTP_MAX_BODY" env-default:"1048576"`
	RateBurst    int           `yaml:"rate_burst" env:"CAMPUS_HTTP_RATE_BURST" env-default:"50"`
	RatePerSec   int           `yaml:"rate_per_second" env:"CAMPUS_HTTP_RATE_PER_SECOND" env-default:"25"`
}

type Session struct {
	Issuer     string        `yaml:"issuer" env:"CAMPUS_JWT_ISSUER" env-default:"campus"`
	AccessKey  string        `yaml:"access_key" env:"CAMPUS_JWT_ACCESS_KEY" env-required:"true"`
	RefreshKey string        `yaml:"refresh_key" env:"CAMPUS_JWT_REFRESH_KEY" env-required:"true"`
	AccessTTL  time.Duration `yaml:"access_ttl" env:"CAMPUS_JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"CAMPUS_JWT_REFRESH_TTL" env-default:"168h"`
}

// MustLoad reads configuration from path, or from the environment only when
// path is empty. Any failure is fatal at startup.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load reads and validates the configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.Session.AccessKey == cfg.Session.RefreshKey {
		return nil, fmt.Errorf("access and refresh signing keys must differ")
	}
	return &cfg, nil
}
