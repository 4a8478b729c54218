package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/toolmesh/core"
	"github.com/hupe1980/toolmesh/extract"
	"github.com/hupe1980/toolmesh/logging"
)

// NeedsFollowUp is the sentinel directive returned when at least one call in
// a batch succeeded: the conversation now holds fresh tool results and the
// model must be re-invoked to consume them.
const NeedsFollowUp = "TOOL_CALLS_EXECUTED_NEEDS_FOLLOWUP"

// allFailedMessage is surfaced to the model when every call in a batch failed.
const allFailedMessage = "All tool calls failed. Review the reported errors and try a different approach."

// ToolRegistry executes a tool by name. Implementations must never return
// nil and must report failures through the result, not a panic; the
// processor still isolates panics from misbehaving implementations.
type ToolRegistry interface {
	Execute(ctx context.Context, name string, args map[string]any) *core.ToolExecutionResult
}

// ConversationStore receives the per-call results as they complete, in
// execution order.
type ConversationStore interface {
	AddToolResult(callID, name string, result *core.ToolExecutionResult)
}

// ConfirmFunc is consulted before each call. Returning false vetoes the call;
// a vetoed call records a synthetic failure and the batch continues.
type ConfirmFunc func(call core.ToolCall) bool

// CallOutcome pairs a call with its execution result.
type CallOutcome struct {
	Call   core.ToolCall
	Result *core.ToolExecutionResult
}

// Options configure a Processor.
type Options struct {
	// OutputLimitLines caps how many trailing lines of a tool's output are
	// kept before persistence. Zero disables truncation.
	OutputLimitLines int
	// InterCallDelay is the pause between consecutive calls of a multi-call
	// batch. Single-call batches never pause.
	InterCallDelay time.Duration
	// Confirm is consulted before each call. Nil approves everything.
	Confirm ConfirmFunc
	// Logger receives execution diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger

	// sleep is swapped in tests to avoid real delays.
	sleep func(time.Duration)
}

// WithConfirm sets the per-call confirmation callback.
func WithConfirm(fn ConfirmFunc) func(o *Options) {
	return func(o *Options) { o.Confirm = fn }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithOutputLimit overrides the trailing-line cap on persisted tool output.
func WithOutputLimit(lines int) func(o *Options) {
	return func(o *Options) { o.OutputLimitLines = lines }
}

// Processor executes tool-call batches sequentially against a registry and
// records outcomes into a conversation store.
type Processor struct {
	registry ToolRegistry
	store    ConversationStore
	opts     Options
}

// New creates a Processor bound to a registry and store. The store may be nil
// for callers that only want the returned outcomes.
func New(registry ToolRegistry, store ConversationStore, optFns ...func(o *Options)) *Processor {
	opts := Options{
		OutputLimitLines: 50,
		InterCallDelay:   300 * time.Millisecond,
		Logger:           logging.NoOpLogger{},
		sleep:            time.Sleep,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Processor{registry: registry, store: store, opts: opts}
}

// ExecuteCalls runs a batch strictly in order. Every call produces exactly
// one outcome regardless of failures; the returned directive is NeedsFollowUp
// when at least one call succeeded and a static failure message otherwise.
func (p *Processor) ExecuteCalls(ctx context.Context, calls []core.ToolCall) ([]CallOutcome, string) {
	if len(calls) == 0 {
		return nil, ""
	}

	outcomes := make([]CallOutcome, 0, len(calls))
	succeeded := 0

	for i, call := range calls {
		if i > 0 && p.opts.InterCallDelay > 0 {
			p.opts.sleep(p.opts.InterCallDelay)
		}

		result := p.executeOne(ctx, call)
		if result.Success {
			succeeded++
		}

		result.Output = Truncate(result.Output, p.opts.OutputLimitLines)
		if p.store != nil {
			p.store.AddToolResult(call.ID, call.Name, result)
		}
		outcomes = append(outcomes, CallOutcome{Call: call, Result: result})
	}

	p.opts.Logger.Info("processor.batch.done",
		"calls", len(calls), "succeeded", succeeded, "failed", len(calls)-succeeded)

	if succeeded > 0 {
		return outcomes, NeedsFollowUp
	}
	return outcomes, allFailedMessage
}

// executeOne runs a single call through confirmation and the registry,
// converting a panicking registry into a failed result.
func (p *Processor) executeOne(ctx context.Context, call core.ToolCall) (result *core.ToolExecutionResult) {
	if p.opts.Confirm != nil && !p.opts.Confirm(call) {
		p.opts.Logger.Info("processor.call.skipped", "tool", call.Name, "id", call.ID)
		return &core.ToolExecutionResult{
			Success:   false,
			Error:     "Skipped by user",
			ErrorKind: core.ErrorKindSkipped,
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			p.opts.Logger.Error("processor.call.panic", "tool", call.Name, "panic", fmt.Sprint(rec))
			result = &core.ToolExecutionResult{
				Success:   false,
				Error:     fmt.Sprintf("tool %s panicked: %v", call.Name, rec),
				ErrorKind: core.ErrorKindPanic,
			}
		}
	}()

	p.opts.Logger.Debug("processor.call.start", "tool", call.Name, "id", call.ID)
	result = p.registry.Execute(ctx, call.Name, call.Arguments)
	if result == nil {
		result = &core.ToolExecutionResult{
			Success:   false,
			Error:     fmt.Sprintf("tool %s returned no result", call.Name),
			ErrorKind: core.ErrorKindExecution,
		}
	}
	return result
}

// HandleHallucination converts a fabricated-output detection into the
// corrective user message re-injected into the conversation.
func (p *Processor) HandleHallucination(err *extract.HallucinationError) string {
	p.opts.Logger.Warn("processor.hallucination", "marker", err.Marker)
	return err.Corrective()
}

// Truncate keeps the trailing limit lines of s, prefixing a marker naming how
// many lines were dropped. A non-positive limit or short input returns s
// unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	dropped := len(lines) - limit
	kept := lines[dropped:]
	return fmt.Sprintf("[... %d lines truncated ...]\n%s", dropped, strings.Join(kept, "\n"))
}
