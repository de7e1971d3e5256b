package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// QueryPlaceholder marks where the encoded search query goes in [SearchConfig.Endpoint].
const QueryPlaceholder = "{query}"

// Camera source kinds accepted in [CameraConfig.Source].
const (
	CameraSourceFile = "file"
	CameraSourceDir  = "dir"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Search   SearchConfig   `toml:"search"`
	Camera   CameraConfig   `toml:"camera"`
	Decoder  DecoderConfig  `toml:"decoder"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// SearchConfig controls the product lookup request.
type SearchConfig struct {
	Endpoint       string            `toml:"endpoint"`
	Qualifier      string            `toml:"qualifier"`
	Selector       string            `toml:"selector"`
	UserAgent      string            `toml:"user_agent"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
	Cookie         string            `toml:"cookie"`
	Headers        map[string]string `toml:"headers"`
}

// Timeout returns the request timeout; zero means none.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// CameraConfig selects the frame source standing in for the device camera.
type CameraConfig struct {
	Source   string  `toml:"source"`
	Path     string  `toml:"path"`
	Rotation float64 `toml:"rotation"`
}

// DecoderConfig lists barcode engines in the order they are tried.
type DecoderConfig struct {
	Engines []string `toml:"engines"`
}

// DatabaseConfig contains scan history database settings.
type DatabaseConfig struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Validate reports every problem found in the configuration, wrapped in [ErrInvalidConfig].
func (c *Config) Validate() error {
	var errs []error

	if !strings.Contains(c.Search.Endpoint, QueryPlaceholder) {
		errs = append(errs, fmt.Errorf("search.endpoint must contain %s", QueryPlaceholder))
	}
	if strings.TrimSpace(c.Search.Selector) == "" {
		errs = append(errs, fmt.Errorf("search.selector is empty"))
	}
	if c.Search.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("search.timeout_seconds must not be negative"))
	}

	switch c.Camera.Source {
	case CameraSourceFile, CameraSourceDir:
	default:
		errs = append(errs, fmt.Errorf("camera.source %q is not one of %s, %s", c.Camera.Source, CameraSourceFile, CameraSourceDir))
	}

	if len(c.Decoder.Engines) == 0 {
		errs = append(errs, fmt.Errorf("decoder.engines is empty"))
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required when history is enabled"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
