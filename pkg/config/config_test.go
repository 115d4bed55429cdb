package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HIGHLIGHTS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Cleanup(viper.Reset)
}

func TestDefaultConfig(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Highlights.BaseURL != "http://localhost:8022" {
		t.Errorf("Expected default base URL to be 'http://localhost:8022', got '%s'", cfg.Highlights.BaseURL)
	}

	if cfg.Highlights.Endpoint != SearchEndpoint {
		t.Errorf("Expected default endpoint to be '%s', got '%s'", SearchEndpoint, cfg.Highlights.Endpoint)
	}

	if cfg.Highlights.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout to be 30s, got %s", cfg.Highlights.Timeout)
	}

	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Expected default LLM model to be 'gpt-4o-mini', got '%s'", cfg.LLM.Model)
	}

	if cfg.Chunker.ChunkSize != 1024 {
		t.Errorf("Expected default chunk size to be 1024, got %d", cfg.Chunker.ChunkSize)
	}

	if cfg.NIAH.TopN != 1 {
		t.Errorf("Expected default niah top_n to be 1, got %d", cfg.NIAH.TopN)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("HIGHLIGHTS_API_KEY", "hl-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("HIGHLIGHTS_CHUNKER_CHUNK_SIZE", "512")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Highlights.APIKey != "hl-key" {
		t.Errorf("Expected API key from environment, got '%s'", cfg.Highlights.APIKey)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("Expected LLM API key from environment, got '%s'", cfg.LLM.APIKey)
	}
	if cfg.Chunker.ChunkSize != 512 {
		t.Errorf("Expected chunk size 512 from environment, got %d", cfg.Chunker.ChunkSize)
	}
}

func TestHomeConfigFile(t *testing.T) {
	resetViper(t)

	yaml := "highlights:\n  base_url: http://search.internal:9000/\n  auth: bearer\n  endpoint: /moonshine/search/text_chunks\n"
	path := filepath.Join(os.Getenv("HOME"), ".highlights-cli.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Highlights.BaseURL != "http://search.internal:9000" {
		t.Errorf("Expected trailing slash to be trimmed, got '%s'", cfg.Highlights.BaseURL)
	}
	if cfg.Highlights.Auth != AuthBearer {
		t.Errorf("Expected bearer auth, got '%s'", cfg.Highlights.Auth)
	}
	if cfg.Highlights.Endpoint != LegacySearchEndpoint {
		t.Errorf("Expected legacy endpoint, got '%s'", cfg.Highlights.Endpoint)
	}
}

func TestHighlightsConfigValidate(t *testing.T) {
	valid := HighlightsConfig{BaseURL: "http://localhost", APIKey: "k", Auth: AuthAPIKey}

	tests := []struct {
		name    string
		mutate  func(*HighlightsConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*HighlightsConfig) {}},
		{name: "missing key", mutate: func(c *HighlightsConfig) { c.APIKey = " " }, wantErr: true},
		{name: "missing base url", mutate: func(c *HighlightsConfig) { c.BaseURL = "" }, wantErr: true},
		{name: "unknown auth", mutate: func(c *HighlightsConfig) { c.Auth = "basic" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *HighlightsConfig) { c.Timeout = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	cfg := valid
	cfg.APIKey = ""
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}
