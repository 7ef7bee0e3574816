// Package config provides configuration loading for the arena server, from an
// optional YAML file overlaid with environment variables. The resulting Config
// is immutable for the process lifetime and passed explicitly to each
// component at startup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Close policies for POST /v1/arena/rounds/close.
const (
	// ClosePolicyAgent lets any authenticated agent close the open round.
	ClosePolicyAgent = "agent"
	// ClosePolicyAdmin requires the admin key to close the open round.
	ClosePolicyAdmin = "admin"
)

// Config is the top-level arena server configuration.
type Config struct {
	Env         string   `yaml:"env" env:"ENV"`
	ListenAddr  string   `yaml:"listen_addr" env:"LISTEN_ADDR"`
	AdminKey    string   `yaml:"admin_key" env:"ADMIN_KEY"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS"`
	// PublicBase is the externally reachable frontend base URL used to build
	// onboarding verification links, e.g. "https://arena.example.com".
	PublicBase  string   `yaml:"public_base" env:"PUBLIC_BASE"`
	ClosePolicy string   `yaml:"close_policy" env:"CLOSE_POLICY"`
	DB          DBConfig `yaml:"db"`
}

// DBConfig holds connection settings for the relational store.
type DBConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER"` // sqlite or mysql
	DSN    string `yaml:"dsn" env:"DB_DSN"`
}

// Load reads the YAML file at path (skipped if path is empty or the file does
// not exist), overlays environment variables, applies defaults, and validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse unmarshals YAML bytes into a validated Config without the env
// overlay. Used by tests and embedded deployments.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.AdminKey == "" {
		c.AdminKey = "changeme-admin"
	}
	if len(c.CORSOrigins) == 0 {
		// Local frontend for dev.
		c.CORSOrigins = []string{"http://localhost:5173"}
	}
	if c.ClosePolicy == "" {
		c.ClosePolicy = ClosePolicyAgent
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.DSN == "" && c.DB.Driver == "sqlite" {
		c.DB.DSN = "file:arena.db?_busy_timeout=5000"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("db.driver %q must be sqlite or mysql", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, "db.dsn is required")
	}
	switch c.ClosePolicy {
	case ClosePolicyAgent, ClosePolicyAdmin:
	default:
		errs = append(errs, fmt.Sprintf("close_policy %q must be agent or admin", c.ClosePolicy))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
