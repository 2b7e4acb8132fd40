package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RotationConfig defines parameters for size-based log file rotation
// (the "size" endpoint type).
type RotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb,omitempty"`
	MaxAgeDays int  `yaml:"max_age_days,omitempty"`
	MaxBackups int  `yaml:"max_backups,omitempty"`
	Compress   bool `yaml:"compress,omitempty"`
}

// EndpointConfig represents one logging endpoint configuration.
type EndpointConfig struct {
	Name    string `yaml:"name" validate:"required"`                                                // Mandatory, unique identifier
	Type    string `yaml:"type" validate:"required,oneof=file rotating dated size console gelf"`    // Mandatory
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level,omitempty" validate:"omitempty,oneof=all debug info notice warning error critical none"` // Minimum accepted level, default all

	// File-backed endpoints (file, rotating, dated, size)
	Path     string         `yaml:"path,omitempty"`     // Mandatory for file-backed types
	Truncate bool           `yaml:"truncate,omitempty"` // Truncate on open instead of appending
	Slots    int            `yaml:"slots,omitempty"`    // Rotation slot count, mandatory for type: rotating
	Rotation RotationConfig `yaml:"rotation,omitempty"` // Only for type: size

	// Console specific
	Mode string `yaml:"mode,omitempty" validate:"omitempty,oneof=sync async"` // Default sync

	// GELF specific
	Host            string `yaml:"host,omitempty"`                                                  // Mandatory for type: gelf
	Port            int    `yaml:"port,omitempty"`                                                  // Mandatory for type: gelf
	Protocol        string `yaml:"protocol,omitempty" validate:"omitempty,oneof=udp tcp"`           // Default udp
	CompressionType string `yaml:"compression_type,omitempty" validate:"omitempty,oneof=none gzip zlib"` // UDP only, default none
}

// Config represents the logfanout configuration.
type Config struct {
	// RateLimit caps accepted records per second across the dispatcher;
	// zero disables the limiter.
	RateLimit int `yaml:"rate_limit,omitempty" validate:"gte=0"`

	// DisableCaller skips call-site capture on each record.
	DisableCaller bool `yaml:"disable_caller,omitempty"`

	Endpoints []EndpointConfig `yaml:"endpoints" validate:"required,min=1,dive"`
}

// LoadConfig loads and validates the configuration from a file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file '%s': %w", path, err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ValidateConfig checks structural constraints and the per-type endpoint
// requirements the struct tags cannot express.
func ValidateConfig(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	seen := make(map[string]bool, len(cfg.Endpoints))
	for i, ep := range cfg.Endpoints {
		if seen[ep.Name] {
			return fmt.Errorf("endpoint %d: duplicate endpoint name '%s'", i, ep.Name)
		}
		seen[ep.Name] = true

		switch ep.Type {
		case "file", "dated", "size":
			if ep.Path == "" {
				return fmt.Errorf("endpoint '%s': path is required for type '%s'", ep.Name, ep.Type)
			}
		case "rotating":
			if ep.Path == "" {
				return fmt.Errorf("endpoint '%s': path is required for type 'rotating'", ep.Name)
			}
			if ep.Slots < 1 {
				return fmt.Errorf("endpoint '%s': slots must be at least 1, got %d", ep.Name, ep.Slots)
			}
		case "console":
			// No extra requirements; mode defaults to sync.
		case "gelf":
			if ep.Host == "" {
				return fmt.Errorf("endpoint '%s': host is required for type 'gelf'", ep.Name)
			}
			if ep.Port <= 0 || ep.Port > 65535 {
				return fmt.Errorf("endpoint '%s': invalid gelf port: %d", ep.Name, ep.Port)
			}
		}
	}

	return nil
}
