package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models groundswell.yml.
type Config struct {
	Server struct {
		Addr             string `yaml:"addr"`
		BasePath         string `yaml:"base_path"`
		JWTSecret        string `yaml:"jwt_secret"`
		AllowActorHeader bool   `yaml:"allow_actor_header"`
	} `yaml:"server"`
	Ledger struct {
		FeedLimit int `yaml:"feed_limit"`
	} `yaml:"ledger"`
	Engagements struct {
		// CascadeOnUpdate controls whether an update-path transition to
		// "active" also marks the opportunity filled, like creation does.
		CascadeOnUpdate bool `yaml:"cascade_on_update"`
	} `yaml:"engagements"`
	Dashboard struct {
		SectionLimit int `yaml:"section_limit"`
	} `yaml:"dashboard"`
}

// Default returns the config used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.BasePath = "/v0"
	cfg.Server.AllowActorHeader = true
	cfg.Ledger.FeedLimit = 200
	cfg.Engagements.CascadeOnUpdate = true
	cfg.Dashboard.SectionLimit = 50
	return &cfg
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Ledger.FeedLimit < 0 {
		return fmt.Errorf("config.ledger.feed_limit must not be negative")
	}
	if c.Ledger.FeedLimit > 200 {
		return fmt.Errorf("config.ledger.feed_limit must not exceed 200")
	}
	if c.Dashboard.SectionLimit < 0 {
		return fmt.Errorf("config.dashboard.section_limit must not be negative")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "groundswell.yml")
}

// FromYAML parses and validates config from raw YAML bytes, filling defaults
// for absent sections.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Load reads config from the workspace, defaulting when the file is absent.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}
