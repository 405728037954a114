package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// InsecureJWTSecret is the built-in development secret. Validate refuses it
// outside the development environment.
const InsecureJWTSecret = "warm-connect-dev-secret"

// LLM providers understood by the icebreaker generator.
const (
	ProviderNone   = "none"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

type Config struct {
	Env            string        `yaml:"env" env:"ENV"`
	Addr           string        `yaml:"addr" env:"ADDR"`
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	APITimeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	DatabasePath   string        `yaml:"database_path" env:"DATABASE_PATH"`
	MigrateOnStart bool          `yaml:"migrate_on_start" env:"MIGRATE_ON_START"`
	TokenDuration  time.Duration `yaml:"token_duration" env:"TOKEN_DURATION"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL"`
	Language       string        `yaml:"language" env:"LANGUAGE"`
	LLM            LLMConfig     `yaml:"llm" envPrefix:"LLM_"`
	Ollama         OllamaConfig  `yaml:"ollama" envPrefix:"OLLAMA_"`
	Gemini         GeminiConfig  `yaml:"gemini" envPrefix:"GEMINI_"`
}

// LLMConfig selects the language-model provider behind the icebreaker generator.
type LLMConfig struct {
	Provider string        `yaml:"provider" env:"PROVIDER"`
	Model    string        `yaml:"model" env:"MODEL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type OllamaConfig struct {
	BaseURL                 string        `yaml:"base_url" env:"BASE_URL"`
	Timeout                 time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Retries                 int           `yaml:"retries" env:"RETRIES"`
	Backoff                 time.Duration `yaml:"backoff" env:"BACKOFF"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold" env:"CIRCUIT_FAILURE_THRESHOLD"`
	CircuitReset            time.Duration `yaml:"circuit_reset" env:"CIRCUIT_RESET"`
}

type GeminiConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// Default returns the configuration used when neither a file nor the
// environment override a setting.
func Default() *Config {
	return &Config{
		Env:            "development",
		Addr:           ":8080",
		JWTSecret:      InsecureJWTSecret,
		APITimeout:     15 * time.Second,
		DatabasePath:   "warmconnect.db",
		MigrateOnStart: true,
		TokenDuration:  30 * 24 * time.Hour,
		LogLevel:       "info",
		Language:       "zh",
		LLM: LLMConfig{
			Provider: ProviderNone,
			Timeout:  10 * time.Second,
		},
		Ollama: OllamaConfig{
			BaseURL:                 "http://localhost:11434",
			Timeout:                 10 * time.Second,
			Retries:                 1,
			Backoff:                 300 * time.Millisecond,
			CircuitFailureThreshold: 5,
			CircuitReset:            30 * time.Second,
		},
		Gemini: GeminiConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (optional), then WARM_* environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "WARM_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	} else if c.JWTSecret == InsecureJWTSecret && !c.IsDevelopment() {
		errs = append(errs, errors.New("jwt_secret must be changed outside development"))
	}
	if c.TokenDuration <= 0 {
		errs = append(errs, errors.New("token_duration must be positive"))
	}

	switch c.LLM.Provider {
	case "", ProviderNone:
	case ProviderOllama:
		if c.LLM.Model == "" {
			errs = append(errs, errors.New("llm.model is required for ollama"))
		}
		if c.Ollama.BaseURL == "" {
			errs = append(errs, errors.New("ollama.base_url is required"))
		}
	case ProviderGemini:
		if c.LLM.Model == "" {
			errs = append(errs, errors.New("llm.model is required for gemini"))
		}
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("gemini.api_key is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
