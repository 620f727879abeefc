// Package dispatch fans pending paragraphs out to concurrent classification
// calls and collects their scores as they complete.
package dispatch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/fiscal-tone/internal/types"
)

// ItemClassifier classifies a single paragraph. Satisfied by
// classify.Classifier; tests substitute mocks.
type ItemClassifier interface {
	Classify(ctx context.Context, p types.Paragraph) (types.Score, error)
}

// Result reports the outcome of one batch. Scores holds every resolved
// paragraph (including absent ones); Unresolved lists paragraph ids whose
// retries were exhausted, with Err carrying the first such failure.
type Result struct {
	Scores     []types.Score
	Unresolved []string
	Err        error
}

// Dispatcher runs classification for batches of paragraphs. Concurrency
// bounds the number of in-flight classifications; actual call throughput is
// governed by the limiter inside the classifier, so concurrency only affects
// latency, never the quota.
type Dispatcher struct {
	classifier  ItemClassifier
	concurrency int
	logger      *slog.Logger
}

// New creates a Dispatcher with the given in-flight bound.
func New(classifier ItemClassifier, concurrency int, logger *slog.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{classifier: classifier, concurrency: concurrency, logger: logger}
}

// Dispatch classifies every pending paragraph concurrently and returns the
// collected outcomes. Each unique paragraph id is submitted exactly once, so
// at most one classification per item is ever in flight. A failure in one
// item's pipeline does not cancel siblings: the batch degrades to partial
// completion and reports which items remain unresolved.
func (d *Dispatcher) Dispatch(ctx context.Context, pending []types.Paragraph) Result {
	unique := dedupe(pending)

	type outcome struct {
		score types.Score
		err   error
	}
	outcomes := make([]outcome, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, p := range unique {
		i, p := i, p
		g.Go(func() error {
			score, err := d.classifier.Classify(gctx, p)
			outcomes[i] = outcome{score: score, err: err}
			// Errors are collected, not returned: returning would cancel
			// gctx and corrupt sibling classifications mid-flight.
			return nil
		})
	}
	_ = g.Wait()

	var result Result
	for i, o := range outcomes {
		if o.err != nil {
			result.Unresolved = append(result.Unresolved, unique[i].ID)
			if result.Err == nil {
				result.Err = o.err
			}
			continue
		}
		result.Scores = append(result.Scores, o.score)
	}

	if len(result.Unresolved) > 0 {
		d.logger.Error("batch finished with unresolved paragraphs",
			"unresolved", len(result.Unresolved), "resolved", len(result.Scores))
	}
	return result
}

// dedupe keeps the first occurrence of each paragraph id.
func dedupe(pending []types.Paragraph) []types.Paragraph {
	seen := make(map[string]bool, len(pending))
	unique := make([]types.Paragraph, 0, len(pending))
	for _, p := range pending {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		unique = append(unique, p)
	}
	return unique
}
