// Package config loads service settings from defaults, an optional YAML
// file and ROLLCALL_* environment variables, in that order of precedence.
package config

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ROLLCALL"

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Validation errors
var (
	ErrCSRFKeyRequired = errors.New("ROLLCALL_CSRF_KEY must be set in production")
	ErrCSRFKeyInvalid  = errors.New("ROLLCALL_CSRF_KEY must be 64 hex characters (32 bytes)")
	ErrUnknownEnv      = errors.New("ROLLCALL_ENV must be 'development' or 'production'")
	ErrInvalidLimit    = errors.New("rate limit, thresholds and session ttl must be positive")
)

// Config holds every runtime setting.
type Config struct {
	Addr           string        `yaml:"addr"           envconfig:"ADDR"`
	DBPath         string        `yaml:"dbPath"         envconfig:"DB_PATH"`
	Env            string        `yaml:"env"            envconfig:"ENV"`
	CSRFKey        string        `yaml:"csrfKey"        envconfig:"CSRF_KEY"`
	TrustedOrigins []string      `yaml:"trustedOrigins" envconfig:"TRUSTED_ORIGINS"`
	SlowQueryMs    int           `yaml:"slowQueryMs"    envconfig:"SLOW_QUERY_MS"`
	SlowRequestMs  int           `yaml:"slowRequestMs"  envconfig:"SLOW_REQUEST_MS"`
	RateLimit      int           `yaml:"rateLimit"      envconfig:"RATE_LIMIT"`
	SessionTTL     time.Duration `yaml:"sessionTTL"     envconfig:"SESSION_TTL"`
	SeedFile       string        `yaml:"seedFile"       envconfig:"SEED_FILE"`
	AdminEmail     string        `yaml:"adminEmail"     envconfig:"ADMIN_EMAIL"`
	AdminPassword  string        `yaml:"adminPassword"  envconfig:"ADMIN_PASSWORD"`
}

type contextKey struct{}

// WithContext stores cfg on ctx for cobra subcommands.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext returns the Config stored by WithContext, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(contextKey{}).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Default returns the development defaults.
func Default() *Config {
	return &Config{
		Addr:           ":8080",
		DBPath:         "rollcall.db",
		Env:            EnvDevelopment,
		TrustedOrigins: []string{"localhost:8080", "127.0.0.1:8080"},
		SlowQueryMs:    50,
		SlowRequestMs:  200,
		RateLimit:      10,
		SessionTTL:     24 * time.Hour,
		AdminEmail:     "admin@rollcall.local",
	}
}

// Load builds the configuration.
// PRE: configFile and dotenvFile may be empty; a missing dotenvFile is ignored
// POST: Returns a validated Config; env overrides file overrides defaults
func Load(configFile, dotenvFile string) (*Config, error) {
	if dotenvFile != "" {
		if _, err := os.Stat(dotenvFile); err == nil {
			// Variables already present in the environment win over the file.
			if err := godotenv.Load(dotenvFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", dotenvFile, err)
			}
		}
	}

	cfg := Default()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded settings.
// PRE: Config is populated
// POST: Returns nil if the config is usable for Env
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return ErrUnknownEnv
	}
	if c.CSRFKey == "" && c.IsProduction() {
		return ErrCSRFKeyRequired
	}
	if c.CSRFKey != "" {
		if _, err := c.CSRFKeyBytes(); err != nil {
			return err
		}
	}
	if c.RateLimit <= 0 || c.SlowQueryMs <= 0 || c.SlowRequestMs <= 0 || c.SessionTTL <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

// IsProduction reports whether cookies must be Secure and secrets configured.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// CSRFKeyBytes decodes CSRFKey. An empty key yields nil.
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, ErrCSRFKeyInvalid
	}
	return key, nil
}

// SlowQuery is SlowQueryMs as a duration.
func (c *Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMs) * time.Millisecond
}

// SlowRequest is SlowRequestMs as a duration.
func (c *Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMs) * time.Millisecond
}
