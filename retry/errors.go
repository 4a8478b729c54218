package retry

import (
	"fmt"
	"time"
)

// RecoverableToolCallError marks a provider rejection that still carries the
// model's tool-call text in its failed_generation payload. The caller should
// run fallback extraction over Payload instead of retrying the request.
type RecoverableToolCallError struct {
	// Payload is the raw failed_generation text recovered from the error body.
	Payload string
	// Err is the provider error that carried the payload.
	Err error
}

func (e *RecoverableToolCallError) Error() string {
	return fmt.Sprintf("tool call rejected by provider, generation payload recovered (%d bytes)", len(e.Payload))
}

func (e *RecoverableToolCallError) Unwrap() error { return e.Err }

// DailyLimitError marks a quota exhaustion whose advertised wait is too long
// to sit out. It is terminal; the handler never retries past it.
type DailyLimitError struct {
	// Wait is the wait the provider advertised before quota resets.
	Wait time.Duration
	// Err is the underlying provider error.
	Err error
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily token limit reached, quota resets in %s", e.Wait.Round(time.Second))
}

func (e *DailyLimitError) Unwrap() error { return e.Err }
