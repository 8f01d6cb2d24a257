// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CONTACTBOOK_FILE.
const EnvPrefix = "CONTACTBOOK_"

// Config holds all contactbook configuration.
type Config struct {
	Storage Storage `yaml:"storage"`
	Export  Export  `yaml:"export"`
	UI      UI      `yaml:"ui"`
	Log     Log     `yaml:"log"`
}

// Storage holds backing file settings.
type Storage struct {
	Path   string `yaml:"path" env:"FILE"`
	Format string `yaml:"format" env:"FORMAT"` // "auto" | "json" | "yaml" | "sqlite"
}

// Export holds CSV export settings.
type Export struct {
	Path string `yaml:"path" env:"EXPORT_PATH"` // Default path offered by the export prompt
}

// UI holds interactive interface settings.
type UI struct {
	ConfirmDelete bool `yaml:"confirm_delete" env:"CONFIRM_DELETE"`
	AltScreen     bool `yaml:"alt_screen" env:"ALT_SCREEN"`
}

// Log holds diagnostic logging settings.
type Log struct {
	File string `yaml:"file" env:"LOG_FILE"` // Empty disables logging
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: Storage{
			Path:   "contacts.json",
			Format: "auto",
		},
		Export: Export{
			Path: "contacts.csv",
		},
		UI: UI{
			ConfirmDelete: true,
			AltScreen:     true,
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.New("config: storage.path cannot be empty")
	}
	switch c.Storage.Format {
	case "", "auto", "json", "yaml", "sqlite":
		// valid
	default:
		return fmt.Errorf("config: storage.format must be one of auto, json, yaml, sqlite, got %q", c.Storage.Format)
	}
	if c.Export.Path == "" {
		return errors.New("config: export.path cannot be empty")
	}
	return nil
}

// ApplyEnv applies CONTACTBOOK_* environment variable overrides to the config.
// Supported variables: CONTACTBOOK_FILE, CONTACTBOOK_FORMAT, CONTACTBOOK_EXPORT_PATH,
// CONTACTBOOK_CONFIRM_DELETE, CONTACTBOOK_ALT_SCREEN, CONTACTBOOK_LOG_FILE.
// Unset variables leave the current value untouched.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Storage *rawStorage `yaml:"storage"`
	Export  *rawExport  `yaml:"export"`
	UI      *rawUI      `yaml:"ui"`
	Log     *rawLog     `yaml:"log"`
}

type rawStorage struct {
	Path   *string `yaml:"path"`
	Format *string `yaml:"format"`
}

type rawExport struct {
	Path *string `yaml:"path"`
}

type rawUI struct {
	ConfirmDelete *bool `yaml:"confirm_delete"`
	AltScreen     *bool `yaml:"alt_screen"`
}

type rawLog struct {
	File *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Storage != nil {
		if layer.Storage.Path != nil {
			c.Storage.Path = *layer.Storage.Path
		}
		if layer.Storage.Format != nil {
			c.Storage.Format = *layer.Storage.Format
		}
	}
	if layer.Export != nil && layer.Export.Path != nil {
		c.Export.Path = *layer.Export.Path
	}
	if layer.UI != nil {
		if layer.UI.ConfirmDelete != nil {
			c.UI.ConfirmDelete = *layer.UI.ConfirmDelete
		}
		if layer.UI.AltScreen != nil {
			c.UI.AltScreen = *layer.UI.AltScreen
		}
	}
	if layer.Log != nil && layer.Log.File != nil {
		c.Log.File = *layer.Log.File
	}
}
