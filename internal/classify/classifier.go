package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jonathan/fiscal-tone/internal/llm"
	"github.com/jonathan/fiscal-tone/internal/ratelimit"
	"github.com/jonathan/fiscal-tone/internal/types"
)

// Options configures the retry and prompt behavior of a Classifier.
type Options struct {
	// BackoffBase is the first retry wait; subsequent waits double.
	BackoffBase time.Duration
	// BackoffMax caps the wait between attempts.
	BackoffMax time.Duration
	// MaxAttempts bounds the total number of service calls per paragraph.
	MaxAttempts int
	// IncludeContext prepends the domain context to every prompt.
	IncludeContext bool
	// Tier selects the model tier; classification only needs TierLite.
	Tier llm.ModelTier
}

// DefaultOptions mirror the backoff schedule the pipeline has been run with
// in production: 2s, 4s, 8s, 16s capped at 30s, five attempts.
func DefaultOptions() Options {
	return Options{
		BackoffBase:    2 * time.Second,
		BackoffMax:     30 * time.Second,
		MaxAttempts:    5,
		IncludeContext: true,
		Tier:           llm.TierLite,
	}
}

// Classifier classifies one paragraph per call. Every attempt consumes one
// permit from the shared limiter, so raising concurrency upstream never
// exceeds the service quota.
type Classifier struct {
	client  llm.Client
	limiter *ratelimit.Limiter
	opts    Options
	logger  *slog.Logger
}

// New creates a Classifier. The limiter is passed in explicitly so multiple
// jobs or tests can run with independent quotas.
func New(client llm.Client, limiter *ratelimit.Limiter, opts Options, logger *slog.Logger) *Classifier {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{client: client, limiter: limiter, opts: opts, logger: logger}
}

// Classify turns one paragraph into one Score. Transient service failures
// are retried with exponential backoff; a reply outside the 1..5 vocabulary
// is recorded as absent without retry. If all attempts fail transiently the
// error is returned to the caller: a persistent outage should stop the
// batch, not quietly mis-score everything.
func (c *Classifier) Classify(ctx context.Context, p types.Paragraph) (types.Score, error) {
	prompt := BuildPrompt(p.Text, c.opts.IncludeContext)

	backoff := retry.NewExponential(c.opts.BackoffBase)
	backoff = retry.WithCappedDuration(c.opts.BackoffMax, backoff)
	backoff = retry.WithMaxRetries(uint64(c.opts.MaxAttempts-1), backoff)

	attempts := 0
	var score types.Score
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := c.limiter.Acquire(ctx); err != nil {
			return err // context canceled while waiting, not retryable
		}

		reply, err := c.client.GenerateContent(ctx, prompt, c.opts.Tier)
		if err != nil {
			c.logger.Warn("classification call failed",
				"paragraph", p.ID, "attempt", attempts, "error", err)
			return retry.RetryableError(&TransientError{Message: "service call failed", Cause: err})
		}

		value, ok := ParseScoreToken(reply)
		if !ok {
			c.logger.Warn("recording absent score",
				"error", &MalformedResponseError{ParagraphID: p.ID, Token: strings.TrimSpace(reply)})
			score = types.Score{ParagraphID: p.ID, Absent: true, Attempts: attempts}
			return nil
		}

		score = types.Score{ParagraphID: p.ID, Value: value, Attempts: attempts}
		return nil
	})
	if err != nil {
		return types.Score{}, fmt.Errorf("classifying paragraph %s after %d attempts: %w", p.ID, attempts, err)
	}
	return score, nil
}
