package classify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fiscal-tone/internal/llm"
	"github.com/jonathan/fiscal-tone/internal/ratelimit"
	"github.com/jonathan/fiscal-tone/internal/types"
)

// mockClient scripts GenerateContent replies per call number.
type mockClient struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, prompt string) (string, error)
}

func (m *mockClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.fn(call, prompt)
}

func (m *mockClient) GetModel(llm.ModelTier) string { return "mock-model" }
func (m *mockClient) Close() error                  { return nil }

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	limiter, err := ratelimit.New(1000, time.Second)
	require.NoError(t, err)
	return limiter
}

func testOptions() Options {
	return Options{
		BackoffBase:    time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
		MaxAttempts:    3,
		IncludeContext: false,
		Tier:           llm.TierLite,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassify_Success(t *testing.T) {
	client := &mockClient{fn: func(int, string) (string, error) { return "4", nil }}
	c := New(client, testLimiter(t), testOptions(), discardLogger())

	score, err := c.Classify(context.Background(), types.Paragraph{ID: "p1", Text: "texto"})
	require.NoError(t, err)
	assert.Equal(t, types.Score{ParagraphID: "p1", Value: 4, Attempts: 1}, score)
	assert.Equal(t, 1, client.callCount())
}

func TestClassify_TrimsWhitespaceFromReply(t *testing.T) {
	client := &mockClient{fn: func(int, string) (string, error) { return " 2\n", nil }}
	c := New(client, testLimiter(t), testOptions(), discardLogger())

	score, err := c.Classify(context.Background(), types.Paragraph{ID: "p1", Text: "texto"})
	require.NoError(t, err)
	assert.Equal(t, 2, score.Value)
}

func TestClassify_MalformedResponseIsAbsentWithoutRetry(t *testing.T) {
	client := &mockClient{fn: func(int, string) (string, error) { return "moderado", nil }}
	c := New(client, testLimiter(t), testOptions(), discardLogger())

	score, err := c.Classify(context.Background(), types.Paragraph{ID: "p1", Text: "texto"})
	require.NoError(t, err)
	assert.True(t, score.Absent)
	assert.Equal(t, 0, score.Value)
	assert.Equal(t, 1, score.Attempts)
	assert.Equal(t, 1, client.callCount(), "out-of-vocabulary replies must not be retried")
}

func TestClassify_TransientFailureRetriesThenSucceeds(t *testing.T) {
	client := &mockClient{fn: func(call int, _ string) (string, error) {
		if call < 3 {
			return "", errors.New("503 overloaded")
		}
		return "5", nil
	}}
	c := New(client, testLimiter(t), testOptions(), discardLogger())

	score, err := c.Classify(context.Background(), types.Paragraph{ID: "p1", Text: "texto"})
	require.NoError(t, err)
	assert.Equal(t, 5, score.Value)
	assert.Equal(t, 3, score.Attempts)
	assert.Equal(t, 3, client.callCount())
}

func TestClassify_ExhaustedRetriesPropagateError(t *testing.T) {
	client := &mockClient{fn: func(int, string) (string, error) {
		return "", errors.New("connection reset")
	}}
	c := New(client, testLimiter(t), testOptions(), discardLogger())

	_, err := c.Classify(context.Background(), types.Paragraph{ID: "p1", Text: "texto"})
	require.Error(t, err)

	var transient *TransientError
	assert.ErrorAs(t, err, &transient)
	assert.Equal(t, 3, client.callCount(), "exactly MaxAttempts calls")
}

func TestClassify_ContextCancellationStopsWaiting(t *testing.T) {
	// Single permit consumed up front: Classify blocks in Acquire
	limiter, err := ratelimit.New(1, time.Hour)
	require.NoError(t, err)
	require.NoError(t, limiter.Acquire(context.Background()))

	client := &mockClient{fn: func(int, string) (string, error) { return "1", nil }}
	c := New(client, limiter, testOptions(), discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Classify(ctx, types.Paragraph{ID: "p1", Text: "texto"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, client.callCount(), "no service call without a permit")
}
