// Package retry wraps provider calls with error classification and backoff.
// Three error shapes get special handling: recoverable tool-call rejections
// (returned immediately with the generation payload, never retried), rate
// limits (retried with a 3x stretched exponential backoff) and daily quota
// exhaustion (terminal). Everything else gets plain exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/hupe1980/toolmesh/logging"
)

// Options configure a Handler.
type Options struct {
	// MaxRetries is how many retries follow the initial attempt.
	MaxRetries int
	// BaseDelay seeds the exponential backoff curve.
	BaseDelay time.Duration
	// Logger receives retry diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger

	// wait is swapped in tests; the default honors context cancellation.
	wait func(ctx context.Context, d time.Duration) error
}

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int) func(o *Options) {
	return func(o *Options) { o.MaxRetries = n }
}

// WithBaseDelay overrides the backoff seed.
func WithBaseDelay(d time.Duration) func(o *Options) {
	return func(o *Options) { o.BaseDelay = d }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Handler retries a provider call according to the classification policy.
type Handler struct {
	opts Options
}

// New creates a Handler with the default budget of three retries seeded at
// two seconds.
func New(optFns ...func(o *Options)) *Handler {
	opts := Options{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		Logger:     logging.NoOpLogger{},
		wait:       ctxWait,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Handler{opts: opts}
}

// Do invokes call until it succeeds, a terminal condition appears, or the
// retry budget runs out. On exhaustion the last provider error is returned
// unchanged so callers can still classify it.
func (h *Handler) Do(ctx context.Context, call func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= h.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = call(ctx)
		if lastErr == nil {
			return nil
		}

		c := Classify(lastErr)
		switch c.Kind {
		case KindRecoverableToolCall:
			// The generation text survived inside the error body; hand it
			// back for fallback extraction instead of burning a retry.
			h.opts.Logger.Info("retry.recoverable_tool_call", "payload_bytes", len(c.Payload))
			return &RecoverableToolCallError{Payload: c.Payload, Err: lastErr}
		case KindDailyLimit:
			h.opts.Logger.Warn("retry.daily_limit", "wait", c.Wait.String())
			return &DailyLimitError{Wait: c.Wait, Err: lastErr}
		}

		if attempt == h.opts.MaxRetries {
			break
		}

		delay := Delay(c, attempt, h.opts.BaseDelay)
		h.opts.Logger.Warn("retry.backoff",
			"attempt", attempt+1, "max", h.opts.MaxRetries, "delay", delay.String(), "error", lastErr.Error())
		if err := h.opts.wait(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// ctxWait sleeps for d unless the context is cancelled first.
func ctxWait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
