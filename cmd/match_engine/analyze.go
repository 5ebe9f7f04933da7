package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/akirakaori/lakshya-match/internal/analysis"
	"github.com/akirakaori/lakshya-match/internal/db"
	"github.com/akirakaori/lakshya-match/internal/llm"
	"github.com/akirakaori/lakshya-match/internal/semantic"
	"github.com/akirakaori/lakshya-match/internal/suggest"
)

var (
	analyzeUserID     string
	analyzeJobID      string
	analyzeConfigPath string
	analyzeForce      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute a match analysis for one user/job pair",
	Long:  `Compute (or fetch from cache) the match analysis for a user and job, and print the result as JSON.`,
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeUserID, "user", "", "User UUID (required)")
	analyzeCmd.Flags().StringVar(&analyzeJobID, "job", "", "Job UUID (required)")
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "", "Path to JSON config file")
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "Recompute even if a fresh cached analysis exists")
	_ = analyzeCmd.MarkFlagRequired("user")
	_ = analyzeCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(analyzeUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	jobID, err := uuid.Parse(analyzeJobID)
	if err != nil {
		return fmt.Errorf("invalid job ID: %w", err)
	}

	cfg, err := loadEngineConfig(analyzeConfigPath)
	if err != nil {
		return err
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	llmClient, err := llm.NewClient(ctx, llmConfigFrom(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = llmClient.Close() }()

	analyzer := analysis.NewAnalyzer(
		semantic.NewClient(cfg.SemanticServiceURL, semantic.DefaultTimeout),
		suggest.NewLLMGenerator(llmClient),
		suggest.NewRuleGenerator(),
	)
	service := analysis.NewService(database, analyzer, time.Duration(cfg.CacheDays)*24*time.Hour)

	var result *db.MatchAnalysis
	if analyzeForce {
		result, err = service.Recompute(ctx, userID, jobID)
	} else {
		result, err = service.GetOrCompute(ctx, userID, jobID)
	}
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
