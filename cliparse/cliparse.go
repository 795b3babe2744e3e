// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

type Config struct {
	Port         int    `env:"PORT" envDefault:"3318"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite"`

	JWTSecret      string        `env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL  time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`

	SessionResolveWait time.Duration `env:"SESSION_RESOLVE_WAIT" envDefault:"2s"`
	SessionIdleTTL     time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`

	CacheStaleTime  time.Duration `env:"CACHE_STALE_TIME" envDefault:"5m"`
	CacheGCTime     time.Duration `env:"CACHE_GC_TIME" envDefault:"10m"`
	CacheRetries    int           `env:"CACHE_RETRIES" envDefault:"2"`
	CacheRetryDelay time.Duration `env:"CACHE_RETRY_DELAY" envDefault:"1s"`

	SiteURL       string `env:"SITE_URL" envDefault:"http://localhost:3318"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`

	S3 S3Config
}

// S3Config configures presigned topic image uploads. Uploads are
// disabled when Bucket is empty.
type S3Config struct {
	Bucket    string `env:"S3_BUCKET"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	PublicURL string `env:"S3_PUBLIC_URL"`
}

// ParseFlags loads .env, reads the environment, then applies CLI overrides
func ParseFlags(args []string) (Config, error) {
	cfg, _, err := ParseCommand(args)
	return cfg, err
}

// ParseCommand is ParseFlags for tools that take a command after the
// flags. It also returns the arguments left after the last flag.
func ParseCommand(args []string) (Config, []string, error) {
	var (
		cfg      Config
		envFile  string
		port     int
		dbURL    string
		dbType   string
		secret   string
		siteURL  string
		s3Bucket string
	)

	fs := flag.NewFlagSet("yourviews", flag.ContinueOnError)

	fs.StringVar(&envFile, "env-file", defaultEnvFile, "Path to a .env file")

	// Network config (can be CLI args or env)
	fs.IntVar(&port, "p", 0, "Server port")
	fs.StringVar(&dbURL, "d", "", "Database URL")
	fs.StringVar(&dbType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&siteURL, "site-url", "", "Public site URL used in emailed links")
	fs.StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket for topic images")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&secret, "jwt-secret", "", "JWT signing secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	// godotenv never overrides variables that are already set
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) || envFile != defaultEnvFile {
			return Config{}, nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// CLI overrides env
	if port != 0 {
		cfg.Port = port
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if dbType != "" {
		cfg.DatabaseType = dbType
	}
	if secret != "" {
		cfg.JWTSecret = secret
	}
	if siteURL != "" {
		cfg.SiteURL = siteURL
	}
	if s3Bucket != "" {
		cfg.S3.Bucket = s3Bucket
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}

	return cfg, fs.Args(), nil
}

// Validate checks required values and ranges
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if c.DatabaseType != "sqlite" && c.DatabaseType != "postgres" {
		return fmt.Errorf("unsupported database type %q (use sqlite or postgres)", c.DatabaseType)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET required")
	}
	if c.CacheRetries < 0 {
		return errors.New("CACHE_RETRIES must not be negative")
	}
	return nil
}
