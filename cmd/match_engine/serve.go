package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akirakaori/lakshya-match/internal/config"
	"github.com/akirakaori/lakshya-match/internal/llm"
	"github.com/akirakaori/lakshya-match/internal/server"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the match analysis endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to JSON config file")
	rootCmd.AddCommand(serveCmd)
}

// loadEngineConfig layers the optional config file over environment
// variables and validates the result.
func loadEngineConfig(path string) (config.Config, error) {
	cfg := config.FromEnv()
	if path != "" {
		fileCfg, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// llmConfigFrom maps engine configuration onto the LLM client config.
func llmConfigFrom(cfg config.Config) *llm.Config {
	llmCfg := llm.DefaultConfig()
	if cfg.LLMProvider == "gemini" {
		llmCfg.Provider = llm.ProviderGemini
	}
	if cfg.OllamaURL != "" {
		llmCfg.BaseURL = cfg.OllamaURL
	}
	if cfg.LLMModel != "" {
		llmCfg.Model = cfg.LLMModel
	}
	llmCfg.APIKey = cfg.GeminiAPIKey
	return llmCfg
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadEngineConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cfg.Port == 0 {
		cfg.Port = servePort
	}

	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		DatabaseURL:        cfg.DatabaseURL,
		SemanticServiceURL: cfg.SemanticServiceURL,
		LLM:                llmConfigFrom(cfg),
		CacheTTL:           time.Duration(cfg.CacheDays) * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
