package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// LLM providers supported by the structuring fallback.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration. It is built once at startup and
// passed explicitly to the components that need it.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	BodyLimit int    `yaml:"body_limit"` // bytes
}

// OCRConfig configures the remote recognition service. An empty APIKey
// disables the OCR stage.
type OCRConfig struct {
	APIKey   string        `yaml:"api_key"`
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LLMConfig configures the structuring fallback. An empty APIKey disables it.
type LLMConfig struct {
	Provider      string        `yaml:"provider"` // openai | gemini
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	Model         string        `yaml:"model"`
	Temperature   float32       `yaml:"temperature"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxInputChars int           `yaml:"max_input_chars"`
}

// PipelineConfig holds the quality gate thresholds and balance anchor.
type PipelineConfig struct {
	DefaultAnchor         string `yaml:"default_anchor"`
	IgnoreStatementAnchor bool   `yaml:"ignore_statement_anchor"`
	MinDigitalChars       int    `yaml:"min_digital_chars"`
	MinOCRChars           int    `yaml:"min_ocr_chars"`
	MinStructuringChars   int    `yaml:"min_structuring_chars"`
	MinHeuristicTxns      int    `yaml:"min_heuristic_transactions"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:      ":8080",
			BodyLimit: 32 << 20,
		},
		OCR: OCRConfig{
			Endpoint: "https://api.mistral.ai/v1/ocr",
			Model:    "mistral-ocr-latest",
			Timeout:  60 * time.Second,
		},
		LLM: LLMConfig{
			Provider:      ProviderOpenAI,
			BaseURL:       "https://api.mistral.ai/v1",
			Model:         "mistral-small-latest",
			Temperature:   0,
			Timeout:       45 * time.Second,
			MaxInputChars: 12000,
		},
		Pipeline: PipelineConfig{
			DefaultAnchor:       "5000.00",
			MinDigitalChars:     50,
			MinOCRChars:         50,
			MinStructuringChars: 100,
			MinHeuristicTxns:    3,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Server.BodyLimit = getEnvAsInt("SERVER_BODY_LIMIT", c.Server.BodyLimit)

	c.OCR.APIKey = getEnv("OCR_API_KEY", c.OCR.APIKey)
	c.OCR.Endpoint = getEnv("OCR_ENDPOINT", c.OCR.Endpoint)
	c.OCR.Model = getEnv("OCR_MODEL", c.OCR.Model)
	c.OCR.Timeout = getEnvAsDuration("OCR_TIMEOUT", c.OCR.Timeout)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	if c.LLM.Provider == ProviderGemini {
		c.LLM.APIKey = getEnv("GEMINI_API_KEY", c.LLM.APIKey)
	}

	c.Pipeline.DefaultAnchor = getEnv("DEFAULT_ANCHOR_BALANCE", c.Pipeline.DefaultAnchor)
}

// applyFallbacks fills values derived from other settings. The OpenAI-style
// structuring endpoint shares the OCR vendor's key unless given its own.
func (c *Config) applyFallbacks() {
	if c.LLM.Provider == ProviderOpenAI && c.LLM.APIKey == "" {
		c.LLM.APIKey = c.OCR.APIKey
	}
	if c.LLM.Provider == ProviderGemini && (c.LLM.Model == "" || c.LLM.Model == Default().LLM.Model) {
		c.LLM.Model = "gemini-2.5-flash"
	}
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.Provider != ProviderOpenAI && c.LLM.Provider != ProviderGemini {
		errs = append(errs, fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.LLM.Provider))
	}
	if _, err := decimal.NewFromString(c.Pipeline.DefaultAnchor); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.default_anchor %q is not a decimal: %w", c.Pipeline.DefaultAnchor, err))
	}
	if c.OCR.Timeout <= 0 || c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("ocr.timeout and llm.timeout must be positive"))
	}
	if c.Pipeline.MinHeuristicTxns < 1 {
		errs = append(errs, errors.New("pipeline.min_heuristic_transactions must be at least 1"))
	}
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, errors.New("server.body_limit must be positive"))
	}
	return errors.Join(errs...)
}

// Anchor returns the default starting balance for reconstruction.
func (p PipelineConfig) Anchor() decimal.Decimal {
	d, err := decimal.NewFromString(p.DefaultAnchor)
	if err != nil {
		return decimal.NewFromInt(5000)
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
