package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/fiscal-tone/internal/config"
	"github.com/jonathan/fiscal-tone/internal/pipeline"
)

var classifyCommand = &cobra.Command{
	Use:   "classify",
	Short: "Classify paragraph records end-to-end and aggregate the results",
	Long: `Runs the full classification pipeline: load input -> resume from the latest
checkpoint -> dispatch batches against the LLM under the rate quota ->
checkpoint after every batch -> aggregate per-document summaries.

Interrupted runs resume automatically: paragraphs that already have a score
are never re-submitted. Configuration can be loaded from a JSON file using
--config; command-line flags override config file values.`,
	RunE: runClassifyCmd,
}

var (
	classifyConfigPath    string
	classifyInput         string
	classifyOutputDir     string
	classifyCheckpointDir string
	classifyAPIKey        string
	classifyDatabaseURL   string
	classifyModel         string
	classifyMaxPermits    int
	classifyWindow        string
	classifyBatchSize     int
	classifyConcurrency   int
	classifyRetryBase     string
	classifyRetryMaxWait  string
	classifyRetryAttempts int
	classifyNoContext     bool
	classifyVerbose       bool
)

func init() {
	// Config file flag (processed first)
	classifyCommand.Flags().StringVar(&classifyConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	classifyCommand.Flags().StringVarP(&classifyInput, "input", "i", "", "Path to paragraph records JSON file")
	classifyCommand.Flags().StringVarP(&classifyOutputDir, "output", "o", "", "Output directory for scored paragraphs and summaries")
	classifyCommand.Flags().StringVar(&classifyCheckpointDir, "checkpoint-dir", "", "Directory for checkpoint snapshots")
	classifyCommand.Flags().StringVar(&classifyModel, "model", "", "Override the classification model name")
	classifyCommand.Flags().IntVar(&classifyMaxPermits, "max-permits", 0, "Maximum service calls per window")
	classifyCommand.Flags().StringVar(&classifyWindow, "window", "", "Rate limit window, e.g. 1m")
	classifyCommand.Flags().IntVar(&classifyBatchSize, "batch-size", 0, "Paragraphs per checkpointed batch")
	classifyCommand.Flags().IntVar(&classifyConcurrency, "concurrency", 0, "Concurrent in-flight classifications")
	classifyCommand.Flags().StringVar(&classifyRetryBase, "retry-base", "", "First retry wait, e.g. 2s")
	classifyCommand.Flags().StringVar(&classifyRetryMaxWait, "retry-max-wait", "", "Retry wait cap, e.g. 30s")
	classifyCommand.Flags().IntVar(&classifyRetryAttempts, "retry-attempts", 0, "Maximum service calls per paragraph")
	classifyCommand.Flags().BoolVar(&classifyNoContext, "no-context", false, "Skip the domain context block in prompts")
	classifyCommand.Flags().BoolVarP(&classifyVerbose, "verbose", "v", false, "Print debug-level logs")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	classifyCommand.Flags().StringVar(&classifyAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for run records
	classifyCommand.Flags().StringVar(&classifyDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(classifyCommand)
}

func runClassifyCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if classifyConfigPath != "" {
		loaded, err := config.Load(classifyConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Step 2: Apply CLI overrides (command-line args take priority).
	// Only override if the flag was explicitly set.
	if cmd.Flags().Changed("input") {
		cfg.Input = classifyInput
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = classifyOutputDir
	}
	if cmd.Flags().Changed("checkpoint-dir") {
		cfg.CheckpointDir = classifyCheckpointDir
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = classifyModel
	}
	if cmd.Flags().Changed("max-permits") {
		cfg.MaxPermits = classifyMaxPermits
	}
	if cmd.Flags().Changed("window") {
		cfg.Window = classifyWindow
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = classifyBatchSize
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = classifyConcurrency
	}
	if cmd.Flags().Changed("retry-base") {
		cfg.RetryBase = classifyRetryBase
	}
	if cmd.Flags().Changed("retry-max-wait") {
		cfg.RetryMaxWait = classifyRetryMaxWait
	}
	if cmd.Flags().Changed("retry-attempts") {
		cfg.RetryAttempts = classifyRetryAttempts
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = classifyAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = classifyDatabaseURL
	}
	if classifyNoContext {
		cfg.NoContext = true
	}
	if classifyVerbose {
		cfg.Verbose = true
	}

	// Step 3: Environment fallbacks for credentials
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())

	logger := newLogger(cfg.Verbose)
	result, err := pipeline.Run(ctx, pipeline.RunOptions{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}

	fmt.Printf("Done. %d paragraphs (%d scored, %d absent) across %d documents. Outputs in %s\n",
		result.Report.Paragraphs, result.Report.ScoredCount, result.Report.AbsentCount,
		result.Report.Documents, cfg.OutputDir)
	return nil
}
