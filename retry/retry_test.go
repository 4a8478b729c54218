package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Classification Tests --------------------

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"generic", errors.New("connection reset by peer"), KindGeneric},
		{"rate limit", errors.New("429 rate limit exceeded, try again in 7.66s"), KindRateLimit},
		{"daily limit", errors.New("rate limit: tokens per day exhausted, try again in 59m30s"), KindDailyLimit},
		{"daily under cutoff retries", errors.New("rate limit: tokens per day, try again in 2m10s"), KindRateLimit},
		{"recoverable", errors.New(`400 tool_use_failed: {'failed_generation': '<function=ls {"path": "."}></function>'}`), KindRecoverableToolCall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err).Kind)
		})
	}
}

func TestClassify_RecoverablePayload(t *testing.T) {
	err := errors.New(`groq error: tool_use_failed {'failed_generation': '<function=greet {"name": "x"}></function>'}`)
	c := Classify(err)
	require.Equal(t, KindRecoverableToolCall, c.Kind)
	assert.Equal(t, `<function=greet {"name": "x"}></function>`, c.Payload)

	err = errors.New(`api error: "tool_use_failed", "failed_generation": "default_api.ls()"`)
	c = Classify(err)
	require.Equal(t, KindRecoverableToolCall, c.Kind)
	assert.Equal(t, "default_api.ls()", c.Payload)
}

func TestClassify_PayloadQuoteEscapesUndone(t *testing.T) {
	err := errors.New(`tool_use_failed {'failed_generation': '<function=ls {\"path\": \".\"}></function>'}`)
	c := Classify(err)
	require.Equal(t, KindRecoverableToolCall, c.Kind)
	assert.Equal(t, `<function=ls {"path": "."}></function>`, c.Payload)
}

func TestClassify_MarkerWithoutPayloadIsGeneric(t *testing.T) {
	c := Classify(errors.New("request rejected: tool_use_failed"))
	assert.Equal(t, KindGeneric, c.Kind)
}

func TestParseWait(t *testing.T) {
	wait, ok := ParseWait("try again in 2m59.56s")
	require.True(t, ok)
	assert.InDelta(t, float64(2*time.Minute+59*time.Second+560*time.Millisecond), float64(wait), float64(time.Millisecond))

	wait, ok = ParseWait("try again in 7.66s")
	require.True(t, ok)
	assert.InDelta(t, float64(7660*time.Millisecond), float64(wait), float64(time.Millisecond))

	wait, ok = ParseWait("try again in 3m")
	assert.False(t, ok)
	assert.Zero(t, wait)
}

func TestDelay(t *testing.T) {
	base := 2 * time.Second

	assert.Equal(t, 2*time.Second, Delay(Classification{Kind: KindGeneric}, 0, base))
	assert.Equal(t, 4*time.Second, Delay(Classification{Kind: KindGeneric}, 1, base))
	assert.Equal(t, 8*time.Second, Delay(Classification{Kind: KindGeneric}, 2, base))

	// Rate limits stretch the curve 3x; the advertised wait is not slept on.
	assert.Equal(t, 6*time.Second, Delay(Classification{Kind: KindRateLimit}, 0, base))
	assert.Equal(t, 12*time.Second, Delay(Classification{Kind: KindRateLimit}, 1, base))
	assert.Equal(t, 6*time.Second, Delay(Classification{Kind: KindRateLimit, Wait: 9 * time.Second}, 0, base))
}

// -------------------- Handler Tests --------------------

func newTestHandler(waits *[]time.Duration, optFns ...func(o *Options)) *Handler {
	h := New(optFns...)
	h.opts.wait = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return h
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	var waits []time.Duration
	h := newTestHandler(&waits)

	attempts := 0
	err := h.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts <= 2 {
			return errors.New("transient failure")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
}

func TestDo_ExhaustionReturnsLastError(t *testing.T) {
	var waits []time.Duration
	h := newTestHandler(&waits)

	lastErr := errors.New("still broken")
	attempts := 0
	err := h.Do(context.Background(), func(context.Context) error {
		attempts++
		return lastErr
	})

	assert.Same(t, lastErr, err)
	assert.Equal(t, 4, attempts) // initial + 3 retries
	assert.Len(t, waits, 3)
}

func TestDo_RecoverableSkipsRetry(t *testing.T) {
	var waits []time.Duration
	h := newTestHandler(&waits)

	attempts := 0
	err := h.Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New(`tool_use_failed {'failed_generation': '<function=ls {"path": "."}></function>'}`)
	})

	var recoverable *RecoverableToolCallError
	require.True(t, errors.As(err, &recoverable))
	assert.Equal(t, `<function=ls {"path": "."}></function>`, recoverable.Payload)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, waits)
}

func TestDo_DailyLimitIsTerminal(t *testing.T) {
	var waits []time.Duration
	h := newTestHandler(&waits)

	attempts := 0
	err := h.Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("429 rate limit: tokens per day exhausted, try again in 59m30s")
	})

	var daily *DailyLimitError
	require.True(t, errors.As(err, &daily))
	assert.Equal(t, 59*time.Minute+30*time.Second, daily.Wait)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, waits)
}

func TestDo_RateLimitStretchedBackoff(t *testing.T) {
	var waits []time.Duration
	h := newTestHandler(&waits)

	attempts := 0
	err := h.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts == 1 {
			return errors.New("429 rate limit exceeded, please try again in 7.66s")
		}
		return nil
	})

	require.NoError(t, err)
	// base 2s x 2^0 x 3, regardless of the advertised 7.66s.
	assert.Equal(t, []time.Duration{6 * time.Second}, waits)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New()
	err := h.Do(ctx, func(context.Context) error {
		t.Fatal("call should not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_CustomBudget(t *testing.T) {
	var waits []time.Duration
	h := newTestHandler(&waits, WithMaxRetries(1), WithBaseDelay(time.Second))

	attempts := 0
	failure := errors.New("nope")
	err := h.Do(context.Background(), func(context.Context) error {
		attempts++
		return failure
	})

	assert.Same(t, failure, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []time.Duration{time.Second}, waits)
}
