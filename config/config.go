// Package config loads the vserver YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
)

// Request ID generators.
const (
	RequestIDNone = "none"
	RequestIDV4   = "v4"
	RequestIDV7   = "v7"
)

// EnvLogLevel overrides logging.level when set.
const EnvLogLevel = "VSERVER_LOG_LEVEL"

// Config represents the application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Routes  RoutesConfig  `yaml:"routes"`
	Server  ServerConfig  `yaml:"server"`
	OpenAPI OpenAPIConfig `yaml:"openapi"`
	Logging LogConfig     `yaml:"logging"`
}

// StorageConfig selects where the data store is persisted.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory or file
	Dir     string `yaml:"dir"`     // directory of the file backend
	Key     string `yaml:"key"`     // key the data is persisted under
	Quota   int    `yaml:"quota"`   // maximum persisted size in bytes, 0 for none
}

// RoutesConfig points at the route definition file.
type RoutesConfig struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"`
}

// ServerConfig contains the middleware applied to every route.
type ServerConfig struct {
	Delay        time.Duration     `yaml:"delay"`
	Jitter       time.Duration     `yaml:"jitter"`
	Timeout      time.Duration     `yaml:"timeout"` // 0 waits for handlers indefinitely
	RequestID    string            `yaml:"request_id"`
	AccessLog    bool              `yaml:"access_log"`
	Headers      map[string]string `yaml:"headers"`
	CacheControl string            `yaml:"cache_control"`
}

// OpenAPIConfig describes the generated OpenAPI document.
type OpenAPIConfig struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
	Path    string `yaml:"path"` // base path of the virtual document routes, empty to disable
}

// LogConfig contains settings for logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	Console     bool   `yaml:"console"` // human readable output instead of JSON
	LogToFile   bool   `yaml:"log_to_file"`
	LogFilePath string `yaml:"log_file_path"`
	MaxSize     int    `yaml:"max_size"`    // megabytes
	MaxBackups  int    `yaml:"max_backups"` // rotated files to keep
	MaxAge      int    `yaml:"max_age"`     // days
	Compress    bool   `yaml:"compress"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Dir:     ".vserver",
			Key:     "vserver_db",
		},
		Routes: RoutesConfig{
			File: "routes.yaml",
		},
		Server: ServerConfig{
			RequestID: RequestIDV4,
		},
		OpenAPI: OpenAPIConfig{
			Title:   "vserver",
			Version: "1.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Console:     true,
			LogFilePath: "vserver.log",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      28,
			Compress:    true,
		},
	}
}

// Load reads a configuration file over the defaults. Settings missing from
// the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults, applies environment overrides and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to the defaults when path is empty
// or the file does not exist. Other failures are returned.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}

	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Parse(nil)
	}
	return cfg, err
}

// Validate checks settings that cannot be used as given.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir is required for the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}
	if c.Storage.Key == "" {
		errs = append(errs, errors.New("storage.key must not be empty"))
	}
	if c.Storage.Quota < 0 {
		errs = append(errs, errors.New("storage.quota must not be negative"))
	}

	if c.Server.Delay < 0 || c.Server.Jitter < 0 {
		errs = append(errs, errors.New("server.delay and server.jitter must not be negative"))
	}
	if c.Server.Timeout < 0 {
		errs = append(errs, errors.New("server.timeout must not be negative"))
	}
	switch c.Server.RequestID {
	case "", RequestIDNone, RequestIDV4, RequestIDV7:
	default:
		errs = append(errs, fmt.Errorf("unknown server.request_id %q", c.Server.RequestID))
	}

	if c.Logging.LogToFile && c.Logging.LogFilePath == "" {
		errs = append(errs, errors.New("logging.log_file_path is required when logging to a file"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
