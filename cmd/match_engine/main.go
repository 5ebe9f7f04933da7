// Package main provides the entry point for the match analysis engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "match_engine",
	Short: "Job-candidate match analysis engine",
	Long:  "Computes hybrid relevance scores between candidate profiles and job postings, enriches them with advisory suggestions, and serves them through a cached REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
