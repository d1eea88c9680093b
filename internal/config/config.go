// Package config loads console configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v7"
	"gopkg.in/yaml.v3"

	"github.com/opencorebank/pki-console/internal/caclient"
)

// Config holds the console configuration.
type Config struct {
	// CAURL is the base URL of the certificate authority service.
	CAURL string `yaml:"ca_url" env:"BANKPKI_CA_URL"`

	// ValidityDays is the default requested certificate validity.
	ValidityDays int `yaml:"validity_days" env:"BANKPKI_VALIDITY_DAYS"`

	// AutoGenerateMLKEM requests supplementary post-quantum
	// key-encapsulation material by default.
	AutoGenerateMLKEM bool `yaml:"auto_generate_mlkem" env:"BANKPKI_AUTO_GENERATE_MLKEM"`

	// OutputDir is where the CLI writes credential archives.
	OutputDir string `yaml:"output_dir" env:"BANKPKI_OUTPUT_DIR"`

	// AuditLog is the path of the append-only audit log. Empty disables
	// audit logging (CLI only; the server always audits).
	AuditLog string `yaml:"audit_log" env:"BANKPKI_AUDIT_LOG"`

	// Host is the address the API server binds to.
	Host string `yaml:"host" env:"BANKPKI_HOST"`

	// Port is the API server port.
	Port int `yaml:"port" env:"BANKPKI_PORT"`

	// CATimeout bounds each CA request.
	CATimeout time.Duration `yaml:"ca_timeout" env:"BANKPKI_CA_TIMEOUT"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		ValidityDays: caclient.DefaultValidityDays,
		OutputDir:    "./bundles",
		Port:         8444,
		CATimeout:    30 * time.Second,
	}
}

// Load reads the YAML file at path (if non-empty), applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency. The validity period
// is left to the CA contract normalization; only structural problems are
// rejected here.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.CATimeout < 0 {
		return fmt.Errorf("invalid ca_timeout: %s", c.CATimeout)
	}
	return nil
}

// Address returns the API server listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
