// Package config loads archmap settings from defaults, an optional config
// file, a .env file and ARCHMAP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/phobologic/archmap/internal/summarize"
)

// EnvPrefix prefixes every environment variable archmap reads.
const EnvPrefix = "ARCHMAP"

// DefaultMaxFileSize skips files larger than 1 MB.
const DefaultMaxFileSize = 1_000_000

// Formats lists the supported output encodings.
var Formats = []string{"toon", "json", "yaml"}

// apiKeyEnv maps a cloud provider to the conventional variable holding its key.
var apiKeyEnv = map[string]string{
	summarize.ProviderOpenAI:    "OPENAI_API_KEY",
	summarize.ProviderAnthropic: "ANTHROPIC_API_KEY",
	summarize.ProviderGemini:    "GEMINI_API_KEY",
}

// defaultModel is the model used when summary.model is not set.
var defaultModel = map[string]string{
	summarize.ProviderOpenAI:    "gpt-4o",
	summarize.ProviderAnthropic: "claude-3-5-sonnet-latest",
	summarize.ProviderGemini:    "gemini-2.0-flash",
	summarize.ProviderOllama:    "llama3.1:8b-instruct-q4_K_M",
}

// Config is the complete archmap configuration.
type Config struct {
	Summary  summarize.ProviderConfig `mapstructure:"summary"`
	Analysis AnalysisConfig           `mapstructure:"analysis"`
	Output   OutputConfig             `mapstructure:"output"`
	Logging  LoggingConfig            `mapstructure:"logging"`
}

// AnalysisConfig controls which files a directory run analyzes.
type AnalysisConfig struct {
	MaxFileSize int      `mapstructure:"maxFileSize"`
	MaxFiles    int      `mapstructure:"maxFiles"`
	Exclude     []string `mapstructure:"exclude"`
}

// OutputConfig controls encoding of the report.
type OutputConfig struct {
	Format       string `mapstructure:"format"`
	HideBuiltins bool   `mapstructure:"hideBuiltins"`
}

// LoggingConfig sets the base log level before -v/--quiet are applied.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	return &Config{
		Summary: summarize.ProviderConfig{
			Provider: summarize.ProviderOpenAI,
			Model:    defaultModel[summarize.ProviderOpenAI],
		},
		Analysis: AnalysisConfig{
			MaxFileSize: DefaultMaxFileSize,
		},
		Output: OutputConfig{
			Format: "toon",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("summary.provider", d.Summary.Provider)
	v.SetDefault("summary.model", "")
	v.SetDefault("summary.apiKey", "")
	v.SetDefault("summary.endpoint", "")
	v.SetDefault("summary.timeout", "0s")
	v.SetDefault("analysis.maxFileSize", d.Analysis.MaxFileSize)
	v.SetDefault("analysis.maxFiles", 0)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.hideBuiltins", false)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Load reads configuration for a run started in dir. When file is empty,
// dir is searched for .archmap.{yaml,yml,toml,json}; a missing file is not
// an error. A .env file in dir is loaded into the process environment
// without overriding variables that are already set.
func Load(dir, file string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("analysis.exclude")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".archmap")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Summary.Model == "" {
		cfg.Summary.Model = defaultModel[cfg.Summary.Provider]
	}
	if cfg.Summary.APIKey == "" {
		if name, ok := apiKeyEnv[cfg.Summary.Provider]; ok {
			cfg.Summary.APIKey = os.Getenv(name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings and bounds.
func (c *Config) Validate() error {
	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("output.format: unsupported format %q (want one of %s)", c.Output.Format, strings.Join(Formats, ", "))
	}
	switch c.Summary.Provider {
	case summarize.ProviderOpenAI, summarize.ProviderAnthropic, summarize.ProviderGemini, summarize.ProviderOllama:
	default:
		return fmt.Errorf("summary.provider: unsupported provider %q", c.Summary.Provider)
	}
	if c.Analysis.MaxFileSize <= 0 {
		return fmt.Errorf("analysis.maxFileSize: must be positive, got %d", c.Analysis.MaxFileSize)
	}
	if c.Analysis.MaxFiles < 0 {
		return fmt.Errorf("analysis.maxFiles: must not be negative, got %d", c.Analysis.MaxFiles)
	}
	if c.Summary.Timeout < 0 {
		return fmt.Errorf("summary.timeout: must not be negative, got %s", c.Summary.Timeout)
	}
	return nil
}
