package llm

import "time"

// Provider identifies an LLM backend.
type Provider string

// Supported providers.
const (
	// ProviderOllama talks to a local generation service over HTTP
	// (POST /api/generate). This is the default.
	ProviderOllama Provider = "ollama"
	// ProviderGemini talks to Google Gemini through the genai SDK.
	ProviderGemini Provider = "gemini"
)

// DefaultTimeout bounds one generation request.
const DefaultTimeout = 8 * time.Second

// Config holds LLM client configuration.
type Config struct {
	Provider Provider
	// BaseURL is the generation service address (Ollama provider only).
	BaseURL string
	// Model names the model to generate with.
	Model string
	// APIKey authenticates against hosted providers (Gemini only).
	APIKey string
	// Timeout bounds a single generation request; zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultConfig returns the default Ollama-backed configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderOllama,
		BaseURL:  "http://localhost:11434",
		Model:    "llama3.2:1b",
		Timeout:  DefaultTimeout,
	}
}

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
