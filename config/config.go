// Package config loads capture settings from an optional YAML file.
// Command-line flags are applied on top by the cmd package.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Converter engines.
const (
	EngineBuiltin = "builtin"
	EnginePandoc  = "pandoc"
)

// Config is the full capture configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Fetch    FetchConfig   `yaml:"fetch"`
	Convert  ConvertConfig `yaml:"convert"`
	Browser  BrowserConfig `yaml:"browser"`
	Output   OutputConfig  `yaml:"output"`
}

// FetchConfig controls image resolution and download.
type FetchConfig struct {
	UserAgent        string        `yaml:"user_agent"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxConcurrency   int           `yaml:"max_concurrency"`
	SrcsetAttributes []string      `yaml:"srcset_attributes"`
}

// ConvertConfig selects and tunes the Markdown converter.
type ConvertConfig struct {
	Engine          string `yaml:"engine"`
	PandocPath      string `yaml:"pandoc_path"`
	MainContentOnly bool   `yaml:"main_content_only"`
	Sanitize        bool   `yaml:"sanitize"`
}

// BrowserConfig configures the page loader.
type BrowserConfig struct {
	RemoteURL         string        `yaml:"remote_url"`
	Stealth           bool          `yaml:"stealth"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
}

// OutputConfig lists optional bundle artifacts.
type OutputConfig struct {
	PDF bool `yaml:"pdf"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Fetch: FetchConfig{
			Timeout:          30 * time.Second,
			MaxConcurrency:   8,
			SrcsetAttributes: []string{"data-srcset"},
		},
		Convert: ConvertConfig{Engine: EngineBuiltin},
		Browser: BrowserConfig{NavigationTimeout: 60 * time.Second},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Fetch),
		validation.Field(&c.Convert),
		validation.Field(&c.Browser),
	)
}

// Validate checks the fetch settings.
func (f FetchConfig) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&f.MaxConcurrency, validation.Min(0)),
	)
}

// Validate checks the converter settings.
func (c ConvertConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Engine, validation.Required, validation.In(EngineBuiltin, EnginePandoc)),
	)
}

// Validate checks the browser settings.
func (b BrowserConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.NavigationTimeout, validation.Min(time.Duration(0))),
	)
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
