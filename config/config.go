package config

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	// ErrorModeCompat keeps the deployed contract: answer failures are
	// reported inside a 200 body and fetch failures as 400.
	ErrorModeCompat = "compat"
	// ErrorModeStrict maps every failure kind to its own status code.
	ErrorModeStrict = "strict"
)

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-3.5-turbo",
	ProviderGemini: "gemini-2.0-flash",
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

type Config struct {
	ServerPort      string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ErrorMode       string        `yaml:"error_mode"`
	MetricsEnabled  bool          `yaml:"metrics_enabled"`

	LLM        LLMConfig        `yaml:"llm"`
	Transcript TranscriptConfig `yaml:"transcript"`
	CORS       CORSConfig       `yaml:"cors"`
	Log        LogConfig        `yaml:"log"`
}

type LLMConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	MaxTokens    int    `yaml:"max_tokens"`
	OpenAIAPIKey string `yaml:"-"`
	OpenAIURL    string `yaml:"openai_base_url"`
	GeminiAPIKey string `yaml:"-"`
}

type TranscriptConfig struct {
	Languages []string `yaml:"languages"`
	BaseURL   string   `yaml:"youtube_base_url"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func Default() *Config {
	return &Config{
		ServerPort:      "8000",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    90 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxBodyBytes:    10 << 20,
		ErrorMode:       ErrorModeCompat,
		MetricsEnabled:  true,
		LLM: LLMConfig{
			Provider:  ProviderOpenAI,
			Model:     DefaultModel(ProviderOpenAI),
			MaxTokens: 500,
		},
		Transcript: TranscriptConfig{
			Languages: []string{"en"},
			BaseURL:   "https://www.youtube.com",
		},
		CORS: CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         86400,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, and finally environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()
	// The model default follows whichever provider is finally selected.
	cfg.LLM.Model = ""

	if path := GetEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerPort = GetEnv("PORT", c.ServerPort)
	c.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", c.WriteTimeout)
	c.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", c.IdleTimeout)
	c.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.MaxBodyBytes = int64(getEnvAsInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
	c.ErrorMode = strings.ToLower(GetEnv("ERROR_MODE", c.ErrorMode))
	c.MetricsEnabled = getEnvAsBool("METRICS_ENABLED", c.MetricsEnabled)

	c.LLM.Provider = strings.ToLower(GetEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = GetEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.OpenAIAPIKey = GetEnv("OPENAI_API_KEY", c.LLM.OpenAIAPIKey)
	c.LLM.OpenAIURL = GetEnv("OPENAI_BASE_URL", c.LLM.OpenAIURL)
	c.LLM.GeminiAPIKey = GetEnv("GEMINI_API_KEY", c.LLM.GeminiAPIKey)

	c.Transcript.Languages = getEnvAsStringSlice("TRANSCRIPT_LANGUAGES", c.Transcript.Languages)
	c.Transcript.BaseURL = GetEnv("YOUTUBE_BASE_URL", c.Transcript.BaseURL)

	c.CORS.Enabled = getEnvAsBool("CORS_ENABLED", c.CORS.Enabled)
	c.CORS.AllowedOrigins = getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)
	c.CORS.AllowedMethods = getEnvAsStringSlice("CORS_ALLOWED_METHODS", c.CORS.AllowedMethods)
	c.CORS.AllowedHeaders = getEnvAsStringSlice("CORS_ALLOWED_HEADERS", c.CORS.AllowedHeaders)
	c.CORS.MaxAge = getEnvAsInt("CORS_MAX_AGE", c.CORS.MaxAge)

	c.Log.Level = GetEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = GetEnv("LOG_FORMAT", c.Log.Format)
	c.Log.Dir = GetEnv("LOG_DIR", c.Log.Dir)
}

// APIKey returns the credential for the selected provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

func (c *Config) Strict() bool {
	return c.ErrorMode == ErrorModeStrict
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return errors.Errorf("server port must be numeric, got %q", c.ServerPort)
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be greater than 0")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("max body bytes must be greater than 0")
	}
	switch c.ErrorMode {
	case ErrorModeCompat, ErrorModeStrict:
	default:
		return errors.Errorf("unknown error mode %q", c.ErrorMode)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return errors.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("llm model is required")
	}
	if c.LLM.Provider == ProviderGemini && strings.HasPrefix(c.LLM.Model, "gpt-") {
		return errors.Errorf("model %q is not served by the gemini provider", c.LLM.Model)
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("llm max tokens must be greater than 0")
	}
	if c.LLM.MaxTokens > math.MaxInt32 {
		return errors.Errorf("llm max tokens must be at most %d", math.MaxInt32)
	}
	if len(c.Transcript.Languages) == 0 {
		return errors.New("at least one transcript language is required")
	}
	if c.Transcript.BaseURL == "" {
		return errors.New("youtube base url is required")
	}
	return nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
