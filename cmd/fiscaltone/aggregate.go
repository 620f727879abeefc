package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/fiscal-tone/internal/aggregate"
	"github.com/jonathan/fiscal-tone/internal/pipeline"
	"github.com/jonathan/fiscal-tone/internal/types"
)

var aggregateCommand = &cobra.Command{
	Use:   "aggregate",
	Short: "Re-aggregate an existing scored paragraphs file",
	Long: `Recomputes per-document summaries from a paragraphs_scored.json produced by
a previous classify run, without making any service calls. Useful after
hand-auditing scores or when only the roll-up is needed.`,
	RunE: runAggregateCmd,
}

var (
	aggregateInput     string
	aggregateOutputDir string
)

func init() {
	aggregateCommand.Flags().StringVarP(&aggregateInput, "input", "i", "", "Path to a scored paragraphs JSON file")
	aggregateCommand.Flags().StringVarP(&aggregateOutputDir, "output", "o", "data/output", "Output directory for summaries")
	_ = aggregateCommand.MarkFlagRequired("input")

	rootCmd.AddCommand(aggregateCommand)
}

func runAggregateCmd(_ *cobra.Command, _ []string) error {
	data, err := os.ReadFile(aggregateInput)
	if err != nil {
		return fmt.Errorf("reading %s: %w", aggregateInput, err)
	}

	var entries []types.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", aggregateInput, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s contains no entries", aggregateInput)
	}

	ws := &types.WorkingSet{Entries: entries}
	ws.Reindex()

	summaries := aggregate.Summarize(ws)
	if err := pipeline.WriteOutputs(aggregateOutputDir, ws, summaries); err != nil {
		return err
	}

	report := aggregate.Report(ws, summaries)
	fmt.Printf("Aggregated %d paragraphs (%d scored, %d absent) into %d documents. Outputs in %s\n",
		report.Paragraphs, report.ScoredCount, report.AbsentCount, report.Documents, aggregateOutputDir)
	return nil
}
