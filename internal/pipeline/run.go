// Package pipeline provides the high-level orchestration for a
// classification run: resume, dispatch, checkpoint, aggregate.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jonathan/fiscal-tone/internal/aggregate"
	"github.com/jonathan/fiscal-tone/internal/checkpoint"
	"github.com/jonathan/fiscal-tone/internal/classify"
	"github.com/jonathan/fiscal-tone/internal/config"
	"github.com/jonathan/fiscal-tone/internal/db"
	"github.com/jonathan/fiscal-tone/internal/dispatch"
	"github.com/jonathan/fiscal-tone/internal/input"
	"github.com/jonathan/fiscal-tone/internal/llm"
	"github.com/jonathan/fiscal-tone/internal/ratelimit"
	"github.com/jonathan/fiscal-tone/internal/types"
)

// State names the phases of a run.
type State string

// Run states. A run moves INIT → RESUMING → (DISPATCHING ⇄ CHECKPOINTING)
// → AGGREGATING → DONE; FAILED is terminal and reports the last durable
// checkpoint so a rerun resumes correctly.
const (
	StateInit          State = "INIT"
	StateResuming      State = "RESUMING"
	StateDispatching   State = "DISPATCHING"
	StateCheckpointing State = "CHECKPOINTING"
	StateAggregating   State = "AGGREGATING"
	StateDone          State = "DONE"
	StateFailed        State = "FAILED"
)

// RunOptions holds everything a run needs. The LLM client may be injected
// for tests; when nil, a Gemini client is built from the configured API key.
type RunOptions struct {
	Config config.Config
	Logger *slog.Logger
	Client llm.Client
}

// RunResult carries the final artifacts of a completed run.
type RunResult struct {
	WorkingSet     *types.WorkingSet
	Summaries      []types.DocumentSummary
	Report         types.RunReport
	LastCheckpoint int
	RunID          uuid.UUID
}

// Run executes the full classification pipeline. It is safe to kill the
// process at any point; the next invocation resumes from the latest
// checkpoint and never re-dispatches a paragraph that already has a score.
func Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	state := StateInit
	logger.Info("run starting", "state", state)

	// INIT: validate configuration and credentials before any work starts.
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}

	client := opts.Client
	if client == nil {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("API key is required: set GEMINI_API_KEY or --api-key")
		}
		llmConfig := llm.DefaultConfig()
		if cfg.Model != "" {
			llmConfig = llmConfig.WithModel(llm.TierLite, cfg.Model)
		}
		var err error
		client, err = llm.NewClient(ctx, llmConfig, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("creating LLM client: %w", err)
		}
		defer func() { _ = client.Close() }()
	}

	limiter, err := ratelimit.New(cfg.MaxPermits, cfg.WindowDuration())
	if err != nil {
		return nil, err
	}

	classifier := classify.New(client, limiter, classify.Options{
		BackoffBase:    cfg.RetryBaseDuration(),
		BackoffMax:     cfg.RetryMaxWaitDuration(),
		MaxAttempts:    cfg.RetryAttempts,
		IncludeContext: !cfg.NoContext,
		Tier:           llm.TierLite,
	}, logger)
	dispatcher := dispatch.New(classifier, cfg.Concurrency, logger)

	// Database persistence is optional and never blocks a run.
	var database *db.DB
	var runID uuid.UUID
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database unavailable, continuing without run records", "error", err)
			database = nil
		} else {
			defer database.Close()
			runID, err = database.CreateRun(ctx, cfg.Input, client.GetModel(llm.TierLite))
			if err != nil {
				logger.Warn("failed to create run record", "error", err)
			}
		}
	}

	// RESUMING: rebuild the working set from input plus the latest snapshot.
	state = transition(logger, state, StateResuming)
	logger.Info("loading input", "state", state, "input", cfg.Input)

	paragraphs, err := input.LoadParagraphs(cfg.Input)
	if err != nil {
		return nil, failRun(ctx, database, runID, err)
	}
	ws := types.NewWorkingSet(paragraphs)

	store, err := checkpoint.NewStore(cfg.CheckpointDir, logger)
	if err != nil {
		return nil, failRun(ctx, database, runID, err)
	}
	previous, resumedSeq, err := store.LoadLatest()
	if err != nil {
		return nil, failRun(ctx, database, runID, err)
	}
	ws.MergeScoresFrom(previous)

	scored, absent, unscored := ws.Counts()
	pending := ws.Pending()
	logger.Info("working set ready",
		"paragraphs", ws.Len(), "scored", scored, "absent", absent,
		"unscored", unscored, "resumed_from", resumedSeq)

	// DISPATCHING / CHECKPOINTING alternate per batch. A crash between
	// saves loses at most one batch's worth of work.
	lastSeq := resumedSeq
	totalBatches := (len(pending) + cfg.BatchSize - 1) / cfg.BatchSize
	for start := 0; start < len(pending); start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, len(pending))
		batch := pending[start:end]

		state = transition(logger, state, StateDispatching)
		logger.Info("dispatching batch",
			"state", state, "batch", start/cfg.BatchSize+1, "of", totalBatches, "size", len(batch))

		result := dispatcher.Dispatch(ctx, batch)
		for _, score := range result.Scores {
			ws.Merge(score)
		}

		state = transition(logger, state, StateCheckpointing)
		snap, saveErr := store.Save(ws)
		if saveErr != nil {
			// Continuing without durable progress defeats the point of
			// checkpointing, so persistence failures are fatal.
			state = transition(logger, state, StateFailed)
			return nil, failRun(ctx, database, runID,
				fmt.Errorf("checkpoint save failed (last durable sequence %d): %w", lastSeq, saveErr))
		}
		lastSeq = snap.Sequence

		if result.Err != nil {
			state = transition(logger, state, StateFailed)
			logger.Error("run failed, resume from checkpoint",
				"state", state, "sequence", lastSeq, "unresolved", len(result.Unresolved))
			return nil, failRun(ctx, database, runID,
				fmt.Errorf("batch failed with %d unresolved paragraphs (resume from checkpoint %d): %w",
					len(result.Unresolved), lastSeq, result.Err))
		}
	}

	// AGGREGATING runs once, after every paragraph has a score or is
	// permanently absent for this run.
	state = transition(logger, state, StateAggregating)
	logger.Info("aggregating", "state", state)

	summaries := aggregate.Summarize(ws)
	report := aggregate.Report(ws, summaries)

	if err := WriteOutputs(cfg.OutputDir, ws, summaries); err != nil {
		return nil, failRun(ctx, database, runID, err)
	}

	if database != nil && runID != uuid.Nil {
		saveRunArtifacts(ctx, database, runID, logger, ws, summaries, report)
	}

	state = transition(logger, state, StateDone)
	logger.Info("run complete", "state", state,
		"paragraphs", report.Paragraphs, "documents", report.Documents,
		"scored", report.ScoredCount, "absent", report.AbsentCount,
		"mean_tone", report.MeanTone, "last_checkpoint", lastSeq)

	return &RunResult{
		WorkingSet:     ws,
		Summaries:      summaries,
		Report:         report,
		LastCheckpoint: lastSeq,
		RunID:          runID,
	}, nil
}

// failRun marks the database run failed (when one exists) and returns err.
func failRun(ctx context.Context, database *db.DB, runID uuid.UUID, err error) error {
	if database != nil && runID != uuid.Nil {
		_ = database.CompleteRun(ctx, runID, db.StatusFailed)
	}
	return err
}

func saveRunArtifacts(ctx context.Context, database *db.DB, runID uuid.UUID, logger *slog.Logger,
	ws *types.WorkingSet, summaries []types.DocumentSummary, report types.RunReport) {
	if err := database.SaveArtifact(ctx, runID, db.StepScoredParagraphs, ws.Entries); err != nil {
		logger.Warn("failed to save paragraph artifact", "error", err)
	}
	if err := database.SaveArtifact(ctx, runID, db.StepDocumentSummary, summaries); err != nil {
		logger.Warn("failed to save summary artifact", "error", err)
	}
	if err := database.SaveArtifact(ctx, runID, db.StepRunReport, report); err != nil {
		logger.Warn("failed to save report artifact", "error", err)
	}
	if err := database.CompleteRun(ctx, runID, db.StatusCompleted); err != nil {
		logger.Warn("failed to complete run record", "error", err)
	}
}
