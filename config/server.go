package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the settings of the HTTP server and the engine behind it.
type ServerConfig struct {
	Port             string           `yaml:"port"`               // Port to listen on (e.g., "8080")
	DataDir          string           `yaml:"data_dir"`           // Directory holding persisted problem definitions
	LogLevel         string           `yaml:"log_level"`          // zap level: debug, info, warn, error
	MaxWorkers       int              `yaml:"max_workers"`        // Concurrent async executions
	MaxRequestSizeMB int64            `yaml:"max_request_size_mb"` // Upper bound on request bodies
	Defaults         SearchParameters `yaml:"defaults"`           // Parameters applied to problems that omit them
}

// DefaultServerConfig returns the configuration used when no file is given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:             "8080",
		DataDir:          "./collection_data",
		LogLevel:         "info",
		MaxWorkers:       4,
		MaxRequestSizeMB: 32,
		Defaults:         DefaultSearchParameters(),
	}
}

// LoadServerConfig reads a yaml file over the defaults. An empty path or a
// missing file yields the defaults. COLLECTION_SEARCH_PORT and
// COLLECTION_SEARCH_DATA_DIR override the file.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if v := os.Getenv("COLLECTION_SEARCH_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("COLLECTION_SEARCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	cfg.ApplyDefaults()
	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid config: %v", errs)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *ServerConfig) ApplyDefaults() {
	d := DefaultServerConfig()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = d.MaxWorkers
	}
	if c.MaxRequestSizeMB == 0 {
		c.MaxRequestSizeMB = d.MaxRequestSizeMB
	}
	c.Defaults.ApplyDefaults()
}

// Validate returns one message per invalid field.
func (c *ServerConfig) Validate() []string {
	var errors []string

	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errors = append(errors, fmt.Sprintf("port must be a number between 1 and 65535, got %q", c.Port))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel))
	}
	if c.MaxWorkers < 1 {
		errors = append(errors, fmt.Sprintf("max_workers must be >= 1, got %d", c.MaxWorkers))
	}
	if c.MaxRequestSizeMB < 1 {
		errors = append(errors, fmt.Sprintf("max_request_size_mb must be >= 1, got %d", c.MaxRequestSizeMB))
	}
	for _, e := range c.Defaults.Validate() {
		errors = append(errors, "defaults: "+e)
	}

	return errors
}
