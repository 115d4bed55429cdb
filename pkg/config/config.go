package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when a client needs a key that was not configured.
var ErrMissingAPIKey = errors.New("api key not configured")

type Config struct {
	Highlights HighlightsConfig `mapstructure:"highlights"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Chunker    ChunkerConfig    `mapstructure:"chunker"`
	NIAH       NIAHConfig       `mapstructure:"niah"`
	Results    ResultsConfig    `mapstructure:"results"`
}

// HighlightsConfig describes how to reach the remote search service.
type HighlightsConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Auth     string        `mapstructure:"auth"`
	Timeout  time.Duration `mapstructure:"timeout"`
	TopN     int           `mapstructure:"top_n"`
}

type LLMConfig struct {
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ChunkerConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
}

type NIAHConfig struct {
	TopN int   `mapstructure:"top_n"`
	Seed int64 `mapstructure:"seed"`
}

type ResultsConfig struct {
	Path string `mapstructure:"path"`
}

// Auth schemes understood by the search client.
const (
	AuthAPIKey = "api-key"
	AuthBearer = "bearer"
)

// Endpoint paths served by the search service over its lifetime.
const (
	SearchEndpoint       = "/search"
	LegacySearchEndpoint = "/moonshine/search/text_chunks"
)

func setDefaults() {
	viper.SetDefault("highlights.base_url", "http://localhost:8022")
	viper.SetDefault("highlights.endpoint", SearchEndpoint)
	viper.SetDefault("highlights.auth", AuthAPIKey)
	viper.SetDefault("highlights.timeout", "30s")
	viper.SetDefault("highlights.top_n", 3)

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.timeout", "60s")

	viper.SetDefault("chunker.chunk_size", 1024)

	viper.SetDefault("niah.top_n", 1)
	viper.SetDefault("niah.seed", 0)

	viper.SetDefault("results.path", defaultResultsPath())
}

// BindEnv wires environment variables into viper. Nested keys map to
// HIGHLIGHTS_<SECTION>_<KEY>; the well-known key variables are bound directly.
func BindEnv() {
	viper.SetEnvPrefix("HIGHLIGHTS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("highlights.api_key", "HIGHLIGHTS_HIGHLIGHTS_API_KEY", "HIGHLIGHTS_API_KEY")
	viper.BindEnv("llm.api_key", "HIGHLIGHTS_LLM_API_KEY", "OPENAI_API_KEY")
}

func Load() (*Config, error) {
	setDefaults()
	BindEnv()

	// Fall back to the home config file when the root command did not already read one
	if viper.ConfigFileUsed() == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		configPath := filepath.Join(home, ".highlights-cli.yaml")
		if _, err := os.Stat(configPath); err == nil {
			viper.SetConfigFile(configPath)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Highlights.BaseURL = strings.TrimRight(config.Highlights.BaseURL, "/")
	return &config, nil
}

// Validate checks the values the search client cannot work without.
func (c HighlightsConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("highlights: %w (set HIGHLIGHTS_API_KEY or highlights.api_key)", ErrMissingAPIKey)
	}
	if c.BaseURL == "" {
		return errors.New("highlights: base_url is empty")
	}
	switch c.Auth {
	case AuthAPIKey, AuthBearer:
	default:
		return fmt.Errorf("highlights: unknown auth scheme %q", c.Auth)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("highlights: negative timeout %s", c.Timeout)
	}
	return nil
}

func defaultResultsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "highlights-results.db"
	}
	return filepath.Join(home, ".highlights-cli", "results.db")
}
