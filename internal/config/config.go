// Package config provides configuration loading and validation for the
// match engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents engine configuration that can be loaded from a JSON
// file. All fields are optional; missing values fall back to environment
// variables and built-in defaults.
type Config struct {
	// Server
	Port        int    `json:"port,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`

	// External services
	SemanticServiceURL string `json:"semantic_service_url,omitempty"` // text-similarity service base URL
	LLMProvider        string `json:"llm_provider,omitempty"`         // "ollama" (default) or "gemini"
	OllamaURL          string `json:"ollama_url,omitempty"`
	LLMModel           string `json:"llm_model,omitempty"`
	GeminiAPIKey       string `json:"gemini_api_key,omitempty"`

	// Cache
	CacheDays int `json:"cache_days,omitempty"` // analysis reuse window in days
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns a Config populated from environment variables. Used as
// the defaults layer beneath an optional config file.
func FromEnv() Config {
	cfg := Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SemanticServiceURL: os.Getenv("SEMANTIC_SERVICE_URL"),
		LLMProvider:        os.Getenv("LLM_PROVIDER"),
		OllamaURL:          os.Getenv("OLLAMA_URL"),
		LLMModel:           os.Getenv("LLM_MODEL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
	}
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.Port = port
	}
	if days, err := strconv.Atoi(os.Getenv("MATCH_CACHE_DAYS")); err == nil {
		cfg.CacheDays = days
	}
	return cfg
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required")
	}
	if c.SemanticServiceURL == "" {
		return fmt.Errorf("config error: 'semantic_service_url' is required")
	}
	if c.CacheDays < 0 {
		return fmt.Errorf("config error: 'cache_days' must be non-negative")
	}
	switch c.LLMProvider {
	case "", "ollama", "gemini":
	default:
		return fmt.Errorf("config error: unknown 'llm_provider' %q", c.LLMProvider)
	}
	if c.LLMProvider == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: 'gemini_api_key' is required for the gemini provider")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This applies environment values beneath config file values.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SemanticServiceURL == "" {
		result.SemanticServiceURL = defaults.SemanticServiceURL
	}
	if result.LLMProvider == "" {
		result.LLMProvider = defaults.LLMProvider
	}
	if result.OllamaURL == "" {
		result.OllamaURL = defaults.OllamaURL
	}
	if result.LLMModel == "" {
		result.LLMModel = defaults.LLMModel
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.CacheDays == 0 {
		result.CacheDays = defaults.CacheDays
	}

	return result
}
