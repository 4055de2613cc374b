// Package config loads the TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const assistKeyEnv = "ANTHROPIC_API_KEY"

// Book holds defaults applied to new books.
type Book struct {
	Publisher string `toml:"publisher"`
	Language  string `toml:"language"`
}

// Export controls where exports are written and how covers are prepared.
type Export struct {
	Dir           string `toml:"dir"`
	CoverMaxWidth int    `toml:"cover_max_width"`
	CoverQuality  int    `toml:"cover_quality"`
}

// PDF controls PDF layout.
type PDF struct {
	PageSize     string  `toml:"page_size"`
	Margin       float64 `toml:"margin_mm"`
	FontPath     string  `toml:"font_path"`
	CoverQuality int     `toml:"cover_quality"`
}

// Store locates the project cache.
type Store struct {
	Dir string `toml:"dir"`
}

// Assist configures the suggestion client.
type Assist struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	MaxTokens         int     `toml:"max_tokens"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerMinute float64 `toml:"requests_per_minute"`
}

// Timeout returns the request timeout as a duration.
func (a Assist) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the whole configuration file.
type Config struct {
	Book    Book    `toml:"book"`
	Export  Export  `toml:"export"`
	PDF     PDF     `toml:"pdf"`
	Store   Store   `toml:"store"`
	Assist  Assist  `toml:"assist"`
	Logging Logging `toml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Book:   Book{Publisher: "Manuscript", Language: "ja"},
		Export: Export{Dir: ".", CoverMaxWidth: 1600, CoverQuality: 90},
		PDF:    PDF{PageSize: "A4", Margin: 20, CoverQuality: 90},
		Store:  Store{Dir: "~/.local/share/manuscript"},
		Assist: Assist{
			BaseURL:           "https://api.anthropic.com",
			Model:             "claude-3-5-sonnet-latest",
			MaxTokens:         2048,
			TimeoutSeconds:    120,
			RequestsPerMinute: 30,
		},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/manuscript/config.toml")
}

// Load reads the configuration at path, or at DefaultConfigPath when path
// is empty. A missing file yields the defaults. It returns the config, the
// resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, "", false, err
		}
	} else {
		var err error
		if path, err = expandPath(path); err != nil {
			return nil, "", false, err
		}
	}

	exists := true
	file, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		exists = false
	case err != nil:
		return nil, "", false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		dec := toml.NewDecoder(file).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, path, exists, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Export.Dir, err = expandPath(c.Export.Dir); err != nil {
		return fmt.Errorf("export.dir: %w", err)
	}
	if c.Store.Dir, err = expandPath(c.Store.Dir); err != nil {
		return fmt.Errorf("store.dir: %w", err)
	}
	if c.PDF.FontPath, err = expandPath(c.PDF.FontPath); err != nil {
		return fmt.Errorf("pdf.font_path: %w", err)
	}
	if strings.TrimSpace(c.Assist.APIKey) == "" {
		c.Assist.APIKey = os.Getenv(assistKeyEnv)
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch strings.ToLower(c.PDF.PageSize) {
	case "a3", "a4", "a5", "letter", "legal":
	default:
		return fmt.Errorf("pdf.page_size: unsupported value %q", c.PDF.PageSize)
	}
	if c.PDF.Margin < 0 {
		return fmt.Errorf("pdf.margin_mm: must not be negative")
	}
	for name, q := range map[string]int{"pdf.cover_quality": c.PDF.CoverQuality, "export.cover_quality": c.Export.CoverQuality} {
		if q < 1 || q > 100 {
			return fmt.Errorf("%s: must be between 1 and 100, got %d", name, q)
		}
	}
	if c.Export.CoverMaxWidth < 0 {
		return fmt.Errorf("export.cover_max_width: must not be negative")
	}
	if c.Assist.RequestsPerMinute < 0 {
		return fmt.Errorf("assist.requests_per_minute: must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// ExpandPath applies the configuration path rules: a leading ~ is the home
// directory and the result is absolute.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

func expandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
