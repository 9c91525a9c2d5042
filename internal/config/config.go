// Package config provides the YAML application configuration with
// first-run creation, defaulting and atomic 0600 saves.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes one ICS subscription feed to import from.
type ICSConfig struct {
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the widget API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone the dial operates in; empty or invalid
	// falls back to the system zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DataDir is where the event, settings and import-ledger blobs live.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// SweepCron schedules the retention sweep and ICS refresh
	// (robfig/cron syntax).
	SweepCron string `yaml:"sweep" json:"sweep"`

	// DefaultEventColor is assigned to imported events.
	DefaultEventColor string `yaml:"default_event_color" json:"default_event_color"`

	// ICS is the list of subscribed feeds; empty disables import.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, protects all endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8099",
		Timezone:          "",
		DataDir:           "/var/lib/dialcal",
		SweepCron:         "*/30 * * * *",
		DefaultEventColor: "#4f8df5",
		ICS:               []ICSConfig{},
		BasicAuth:         nil,
	}
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8099"
	}
	if c.DataDir == "" {
		c.DataDir = "/var/lib/dialcal"
	}
	if c.SweepCron == "" {
		c.SweepCron = "*/30 * * * *"
	}
	if c.DefaultEventColor == "" {
		c.DefaultEventColor = "#4f8df5"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Load reads configuration from the given YAML path. A missing file is
// a first run: the default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dialcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
