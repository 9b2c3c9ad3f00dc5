// Package config loads memex configuration from defaults, YAML or TOML files
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Load when the explicit config file does not exist.
var ErrNotFound = errors.New("config file not found")

// DefaultThreads is the ingest worker count when nothing overrides it.
const DefaultThreads = 8

// Config represents the complete memex configuration.
type Config struct {
	Version int           `yaml:"version" toml:"version" json:"version"`
	Ingest  IngestConfig  `yaml:"ingest" toml:"ingest" json:"ingest"`
	Extract ExtractConfig `yaml:"extract" toml:"extract" json:"extract"`
	Index   IndexConfig   `yaml:"index" toml:"index" json:"index"`
	Server  ServerConfig  `yaml:"server" toml:"server" json:"server"`
	Log     LogConfig     `yaml:"log" toml:"log" json:"log"`
}

// IngestConfig configures the crawl.
type IngestConfig struct {
	// Threads is both the walker worker count and the capacity of the
	// hand-off channel in front of the index writer.
	Threads int `yaml:"threads" toml:"threads" json:"threads"`

	// Hidden includes dot-files and dot-directories.
	Hidden bool `yaml:"hidden" toml:"hidden" json:"hidden"`

	// NoIgnore disables .gitignore and .ignore handling.
	NoIgnore bool `yaml:"no_ignore" toml:"no_ignore" json:"no_ignore"`

	// FollowSymlinks descends into symlinked directories and reads symlinked files.
	FollowSymlinks bool `yaml:"follow_symlinks" toml:"follow_symlinks" json:"follow_symlinks"`

	// Exclude holds doublestar globs matched against paths relative to the source root.
	Exclude []string `yaml:"exclude" toml:"exclude" json:"exclude"`
}

// ExtractConfig configures per-file content extraction.
type ExtractConfig struct {
	// PDFToText is the pdftotext executable (name on PATH or absolute path).
	PDFToText string `yaml:"pdftotext" toml:"pdftotext" json:"pdftotext"`

	// PDFTimeout bounds one pdftotext invocation ("0" disables the bound).
	PDFTimeout string `yaml:"pdf_timeout" toml:"pdf_timeout" json:"pdf_timeout"`

	// MaxFileSize is the largest text file read into a body, in bytes.
	MaxFileSize int64 `yaml:"max_file_size" toml:"max_file_size" json:"max_file_size"`
}

// IndexConfig configures the index writer.
type IndexConfig struct {
	// BatchSize is the number of documents buffered before a batch is flushed.
	BatchSize int `yaml:"batch_size" toml:"batch_size" json:"batch_size"`
}

// ServerConfig configures the HTTP query endpoint.
type ServerConfig struct {
	Host         string `yaml:"host" toml:"host" json:"host"`
	Port         int    `yaml:"port" toml:"port" json:"port"`
	ReadTimeout  string `yaml:"read_timeout" toml:"read_timeout" json:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout" toml:"write_timeout" json:"write_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Ingest: IngestConfig{
			Threads: DefaultThreads,
			Exclude: []string{},
		},
		Extract: ExtractConfig{
			PDFToText:   "pdftotext",
			PDFTimeout:  "2m",
			MaxFileSize: 64 * 1024 * 1024,
		},
		Index: IndexConfig{
			BatchSize: 500,
		},
		Server: ServerConfig{
			Host:         "localhost",
			Port:         3000,
			ReadTimeout:  "10s",
			WriteTimeout: "30s",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/memex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/memex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "memex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "memex", "config.yaml")
	}
	return filepath.Join(home, ".config", "memex", "config.yaml")
}

// Load builds the effective configuration.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/memex/config.yaml)
//  3. The explicit config file, if path is non-empty (it must exist).
//     A .toml extension selects TOML; anything else is read as YAML.
//  4. Environment variables (MEMEX_*, INGEST_THREADS)
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	userPath := GetUserConfigPath()
	if fileExists(userPath) {
		if err := cfg.loadFile(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if path != "" {
		if !fileExists(path) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFile loads and merges configuration from a YAML or TOML file.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &parsed)
	} else {
		err = yaml.Unmarshal(data, &parsed)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Ingest
	if other.Ingest.Threads != 0 {
		c.Ingest.Threads = other.Ingest.Threads
	}
	if other.Ingest.Hidden {
		c.Ingest.Hidden = true
	}
	if other.Ingest.NoIgnore {
		c.Ingest.NoIgnore = true
	}
	if other.Ingest.FollowSymlinks {
		c.Ingest.FollowSymlinks = true
	}
	if len(other.Ingest.Exclude) > 0 {
		c.Ingest.Exclude = append(c.Ingest.Exclude, other.Ingest.Exclude...)
	}

	// Extract
	if other.Extract.PDFToText != "" {
		c.Extract.PDFToText = other.Extract.PDFToText
	}
	if other.Extract.PDFTimeout != "" {
		c.Extract.PDFTimeout = other.Extract.PDFTimeout
	}
	if other.Extract.MaxFileSize != 0 {
		c.Extract.MaxFileSize = other.Extract.MaxFileSize
	}

	// Index
	if other.Index.BatchSize != 0 {
		c.Index.BatchSize = other.Index.BatchSize
	}

	// Server
	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.ReadTimeout != "" {
		c.Server.ReadTimeout = other.Server.ReadTimeout
	}
	if other.Server.WriteTimeout != "" {
		c.Server.WriteTimeout = other.Server.WriteTimeout
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

// applyEnvOverrides applies environment variable overrides.
// Unparseable values are ignored and the previous value is kept.
func (c *Config) applyEnvOverrides() {
	// INGEST_THREADS is the historical name; MEMEX_THREADS wins when both are set.
	for _, key := range []string{"INGEST_THREADS", "MEMEX_THREADS"} {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				c.Ingest.Threads = n
			}
		}
	}
	if v := os.Getenv("MEMEX_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("MEMEX_PORT"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("MEMEX_PDFTOTEXT"); v != "" {
		c.Extract.PDFToText = v
	}
	if v := os.Getenv("MEMEX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Index.BatchSize = n
		}
	}
	if v := os.Getenv("MEMEX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	if c.Ingest.Threads <= 0 {
		return fmt.Errorf("ingest.threads must be positive, got %d", c.Ingest.Threads)
	}
	for _, pattern := range c.Ingest.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("ingest.exclude has an invalid pattern: %q", pattern)
		}
	}

	if c.Extract.PDFToText == "" {
		return fmt.Errorf("extract.pdftotext must not be empty")
	}
	if _, err := parseDuration(c.Extract.PDFTimeout); err != nil {
		return fmt.Errorf("extract.pdf_timeout: %w", err)
	}
	if c.Extract.MaxFileSize < 0 {
		return fmt.Errorf("extract.max_file_size must be non-negative, got %d", c.Extract.MaxFileSize)
	}

	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	if _, err := parseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("server.read_timeout: %w", err)
	}
	if _, err := parseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("server.write_timeout: %w", err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	return nil
}

// Timeout returns the parsed pdftotext bound; zero means unbounded.
func (c *ExtractConfig) Timeout() time.Duration {
	d, _ := parseDuration(c.PDFTimeout)
	return d
}

// Timeouts returns the parsed HTTP read and write timeouts.
func (c *ServerConfig) Timeouts() (read, write time.Duration) {
	read, _ = parseDuration(c.ReadTimeout)
	write, _ = parseDuration(c.WriteTimeout)
	return read, write
}

// Addr returns host:port for the listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// parseDuration accepts Go durations plus "" and "0" for "no bound".
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be non-negative, got %s", s)
	}
	return d, nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
