package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"CV_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"CV_DB_MAX_CONNS" default:"8"`

	// IngestAPIKeys holds "keyId:secret" pairs, comma separated. Collectors
	// sign requests with these; an empty list disables the ingest endpoints.
	IngestAPIKeys     string `envconfig:"INGEST_API_KEYS" default:""`
	SignatureSkewSecs int    `envconfig:"SIGNATURE_SKEW_SECS" default:"300"`

	// AdminTokenHash is the bcrypt hash of the operator token guarding the
	// reconcile/override/duplicate endpoints. Empty disables them.
	AdminTokenHash string `envconfig:"ADMIN_TOKEN_HASH" default:""`

	ReconcileHoursWindow int `envconfig:"RECONCILE_HOURS_WINDOW" default:"48"`

	DuplicateWindowHours  int `envconfig:"DUPLICATE_WINDOW_HOURS" default:"48"`
	DuplicateDurationTolS int `envconfig:"DUPLICATE_DURATION_TOL_S" default:"60"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("CV_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("CV_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("CV_DB_MIN_CONNS (%d) cannot exceed CV_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.SignatureSkewSecs < 1 {
		return fmt.Errorf("SIGNATURE_SKEW_SECS must be >= 1")
	}
	if c.ReconcileHoursWindow < 1 {
		return fmt.Errorf("RECONCILE_HOURS_WINDOW must be >= 1")
	}
	if c.DuplicateWindowHours < 1 {
		return fmt.Errorf("DUPLICATE_WINDOW_HOURS must be >= 1")
	}
	if c.DuplicateDurationTolS < 1 {
		return fmt.Errorf("DUPLICATE_DURATION_TOL_S must be >= 1")
	}
	if _, err := c.IngestKeyring(); err != nil {
		return err
	}
	return nil
}

// IngestKeyring parses INGEST_API_KEYS into a keyId -> secret map.
func (c *Config) IngestKeyring() (map[string]string, error) {
	keys := map[string]string{}
	raw := strings.TrimSpace(c.IngestAPIKeys)
	if raw == "" {
		return keys, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		keyID, secret, found := strings.Cut(pair, ":")
		keyID = strings.TrimSpace(keyID)
		secret = strings.TrimSpace(secret)
		if !found || keyID == "" || secret == "" {
			return nil, fmt.Errorf("INGEST_API_KEYS entry %q must be keyId:secret", pair)
		}
		if _, exists := keys[keyID]; exists {
			return nil, fmt.Errorf("INGEST_API_KEYS repeats key id %q", keyID)
		}
		keys[keyID] = secret
	}
	return keys, nil
}
