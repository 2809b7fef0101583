package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t, "CONFIG_FILE", "PORT", "ERROR_MODE", "LLM_PROVIDER", "LLM_MODEL", "LLM_MAX_TOKENS", "CORS_ALLOWED_ORIGINS")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerPort != "8000" {
		t.Errorf("expected 8000, got %s", cfg.ServerPort)
	}
	if cfg.ErrorMode != ErrorModeCompat {
		t.Errorf("expected compat error mode, got %s", cfg.ErrorMode)
	}
	if cfg.LLM.Model != "gpt-3.5-turbo" {
		t.Errorf("expected gpt-3.5-turbo, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 500 {
		t.Errorf("expected 500, got %d", cfg.LLM.MaxTokens)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("READ_TIMEOUT", "10s")
	t.Setenv("ERROR_MODE", "STRICT")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("LLM_MODEL", "gemini-2.0-flash")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("TRANSCRIPT_LANGUAGES", "de, en ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "chrome-extension://*")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("expected 9090, got %s", cfg.ServerPort)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Errorf("expected 10s, got %s", cfg.ReadTimeout)
	}
	if !cfg.Strict() {
		t.Errorf("expected strict error mode, got %s", cfg.ErrorMode)
	}
	if cfg.LLM.APIKey() != "g-key" {
		t.Errorf("expected gemini key to be selected, got %q", cfg.LLM.APIKey())
	}
	if got := cfg.Transcript.Languages; len(got) != 2 || got[0] != "de" || got[1] != "en" {
		t.Errorf("unexpected languages %v", got)
	}
	if cfg.CORS.AllowedOrigins[0] != "chrome-extension://*" {
		t.Errorf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
}

func TestDefaultModelFollowsProvider(t *testing.T) {
	unsetEnv(t, "CONFIG_FILE", "LLM_MODEL", "ERROR_MODE")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("expected gemini default model, got %s", cfg.LLM.Model)
	}

	t.Setenv("LLM_MODEL", "gemini-2.5-pro")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("expected explicit model to win, got %s", cfg.LLM.Model)
	}

	t.Setenv("LLM_MODEL", "gpt-4o")
	if _, err := LoadConfig(); err == nil {
		t.Error("expected gemini provider with an openai model to be rejected")
	}
}

func TestInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("LLM_MAX_TOKENS", "many")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("expected default read timeout, got %s", cfg.ReadTimeout)
	}
	if cfg.LLM.MaxTokens != 500 {
		t.Errorf("expected default max tokens, got %d", cfg.LLM.MaxTokens)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "7000"
error_mode: strict
llm:
  model: gpt-4o-mini
  max_tokens: 256
cors:
  allowed_origins:
    - chrome-extension://abc
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_MAX_TOKENS", "300")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerPort != "7000" {
		t.Errorf("expected 7000, got %s", cfg.ServerPort)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %s", cfg.LLM.Model)
	}
	// environment wins over the file
	if cfg.LLM.MaxTokens != 300 {
		t.Errorf("expected 300, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("expected default provider to survive, got %s", cfg.LLM.Provider)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.ServerPort = "" }},
		{"non-numeric port", func(c *Config) { c.ServerPort = "http" }},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
		{"unknown error mode", func(c *Config) { c.ErrorMode = "lenient" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }},
		{"zero max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }},
		{"max tokens beyond int32", func(c *Config) { c.LLM.MaxTokens = math.MaxInt32 + 1 }},
		{"gemini with openai model", func(c *Config) {
			c.LLM.Provider = ProviderGemini
			c.LLM.Model = "gpt-3.5-turbo"
		}},
		{"no languages", func(c *Config) { c.Transcript.Languages = nil }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
