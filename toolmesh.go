// Package toolmesh provides a high-level façade over the family adapter,
// tool execution and retry layers, enabling reliable tool calling across
// model vendors. Most applications interact with this package by:
//  1. Creating a Mesh via New() with a provider (optionally overriding the
//     default in-memory conversation store)
//  2. Registering tools in the tool registry
//  3. Driving turns with Send(), which loops model invocation and tool
//     execution until the model stops requesting tools
//
// The façade delegates response interpretation to the adapter detected from
// the model id, batch execution to the processor and provider error handling
// to the retry handler. All defaults are safe for local development and
// testing; production deployments typically supply a structured logger.
package toolmesh

import (
	"context"
	"errors"

	"github.com/hupe1980/toolmesh/adapter"
	"github.com/hupe1980/toolmesh/conversation"
	"github.com/hupe1980/toolmesh/core"
	"github.com/hupe1980/toolmesh/extract"
	"github.com/hupe1980/toolmesh/logging"
	"github.com/hupe1980/toolmesh/processor"
	"github.com/hupe1980/toolmesh/provider"
	"github.com/hupe1980/toolmesh/retry"
	"github.com/hupe1980/toolmesh/tool"
)

// ErrTurnLimit is returned when the model keeps requesting tools past the
// configured turn budget.
var ErrTurnLimit = errors.New("turn limit reached while tool calls were still pending")

// ConversationStore is the history the mesh threads between invocations.
type ConversationStore interface {
	AddMessage(role, content string, toolCalls []core.APIToolCall)
	AddToolResult(callID, name string, result *core.ToolExecutionResult)
	Messages() []core.Message
}

// Options configures the Mesh instance.
type Options struct {
	// Model selects the model id; the family adapter is detected from it.
	Model string

	// SystemPrompt seeds the conversation. Family-specific tool guidance is
	// appended automatically per request.
	SystemPrompt string

	// MaxTurns bounds how many model invocations one Send may chain.
	MaxTurns int

	// Tools holds the callable capabilities (defaults to an empty registry).
	Tools *tool.Registry

	// Conversation stores history (defaults to an in-memory store).
	Conversation ConversationStore

	// Confirm is consulted before each tool call. Nil approves everything.
	Confirm processor.ConfirmFunc

	// Retry overrides the provider retry handler.
	Retry *retry.Handler

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// WithModel sets the model id.
func WithModel(model string) func(o *Options) {
	return func(o *Options) { o.Model = model }
}

// WithSystemPrompt seeds the conversation with a system message.
func WithSystemPrompt(prompt string) func(o *Options) {
	return func(o *Options) { o.SystemPrompt = prompt }
}

// WithTools sets the tool registry.
func WithTools(tools *tool.Registry) func(o *Options) {
	return func(o *Options) { o.Tools = tools }
}

// WithConfirm sets the per-call confirmation callback.
func WithConfirm(fn processor.ConfirmFunc) func(o *Options) {
	return func(o *Options) { o.Confirm = fn }
}

// WithLogger sets the structured logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// TurnResult is the outcome of one Send: the model's final text, every tool
// execution that happened along the way, and how many model invocations were
// consumed.
type TurnResult struct {
	Content     string
	ToolRuns    []processor.CallOutcome
	Invocations int
}

// Mesh is the high-level façade aggregating the adapter, tool and retry layers.
type Mesh struct {
	opts      Options
	provider  provider.Provider
	adapters  *adapter.Registry
	adapter   *adapter.Adapter
	extractor *extract.Extractor
	proc      *processor.Processor
	retrier   *retry.Handler
	logger    logging.Logger
}

// New creates a Mesh bound to a provider with optional overrides. Any unset
// collaborator is initialized with a sensible default.
func New(p provider.Provider, optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Model:        p.Info().Name,
		MaxTurns:     10,
		Tools:        tool.NewRegistry(),
		Conversation: conversation.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Retry == nil {
		opts.Retry = retry.New(func(o *retry.Options) { o.Logger = opts.Logger })
	}

	extractor := extract.NewExtractor(func(o *extract.Options) {
		o.KnownTools = opts.Tools.Names()
	})
	// The mesh owns its adapter registry so the registered tool names and
	// the configured logger reach the fallback cascade, instead of the
	// package-level registry's defaults.
	adapters := adapter.NewRegistry(func(o *adapter.Options) {
		o.Extractor = extractor
		o.Logger = opts.Logger
	})
	adpt := adapters.Get(opts.Model)
	proc := processor.New(opts.Tools, opts.Conversation,
		processor.WithConfirm(opts.Confirm),
		processor.WithLogger(opts.Logger),
	)

	if opts.SystemPrompt != "" {
		opts.Conversation.AddMessage("system", opts.SystemPrompt, nil)
	}

	return &Mesh{
		opts:      opts,
		provider:  p,
		adapters:  adapters,
		adapter:   adpt,
		extractor: extractor,
		proc:      proc,
		retrier:   opts.Retry,
		logger:    opts.Logger,
	}
}

// Adapter exposes the detected family adapter for capability inspection.
func (m *Mesh) Adapter() *adapter.Adapter { return m.adapter }

// Tools exposes the tool registry for registration.
func (m *Mesh) Tools() *tool.Registry { return m.opts.Tools }

// Send records a user message and drives the invoke/execute loop until the
// model answers without requesting tools, the turn budget runs out, or a
// terminal provider error occurs.
func (m *Mesh) Send(ctx context.Context, userInput string) (*TurnResult, error) {
	m.opts.Conversation.AddMessage("user", userInput, nil)

	result := &TurnResult{}

	for turn := 0; turn < m.opts.MaxTurns; turn++ {
		parsed, err := m.invoke(ctx)
		if err != nil {
			var hall *extract.HallucinationError
			if errors.As(err, &hall) {
				// Push the corrective message and give the model another try.
				m.opts.Conversation.AddMessage("user", m.proc.HandleHallucination(hall), nil)
				result.Invocations++
				continue
			}
			return nil, err
		}
		result.Invocations++
		result.Content = parsed.Content

		m.opts.Conversation.AddMessage("assistant", parsed.Content, apiCalls(parsed.ToolCalls))

		if !parsed.HasToolCalls() {
			return result, nil
		}

		outcomes, directive := m.proc.ExecuteCalls(ctx, parsed.ToolCalls)
		result.ToolRuns = append(result.ToolRuns, outcomes...)

		if directive != processor.NeedsFollowUp {
			// Every call failed; surface the summary so the model can adjust.
			m.opts.Conversation.AddMessage("user", directive, nil)
		}
	}

	return result, ErrTurnLimit
}

// invoke performs one model round-trip through the retry handler and the
// family adapter. A provider rejection that carries the generation payload is
// recovered by running fallback extraction over the payload text.
func (m *Mesh) invoke(ctx context.Context) (*core.ParsedResponse, error) {
	req := m.adapter.FormatRequest(&core.Request{
		Model:    m.opts.Model,
		Messages: m.opts.Conversation.Messages(),
		Tools:    m.opts.Tools.Definitions(),
	})

	var resp *core.Response
	err := m.retrier.Do(ctx, func(ctx context.Context) error {
		r, callErr := m.provider.Complete(ctx, req)
		if callErr != nil {
			return callErr
		}
		resp = r
		return nil
	})

	if err != nil {
		var recoverable *retry.RecoverableToolCallError
		if errors.As(err, &recoverable) {
			return m.recoverFromPayload(recoverable)
		}
		return nil, err
	}

	return m.adapter.ParseResponse(resp)
}

// recoverFromPayload extracts tool calls from the failed_generation text of a
// provider rejection.
func (m *Mesh) recoverFromPayload(recoverable *retry.RecoverableToolCallError) (*core.ParsedResponse, error) {
	calls, err := m.extractor.Extract(recoverable.Payload)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, recoverable
	}

	m.logger.Info("mesh.recovered_calls", "calls", len(calls))
	return &core.ParsedResponse{
		ToolCalls:    calls,
		FinishReason: core.FinishToolCalls,
	}, nil
}

// apiCalls re-serializes normalized calls for conversation history.
func apiCalls(calls []core.ToolCall) []core.APIToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]core.APIToolCall, len(calls))
	for i, call := range calls {
		out[i] = call.APIFormat()
	}
	return out
}
