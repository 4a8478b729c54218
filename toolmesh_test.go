package toolmesh

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/toolmesh/core"
	"github.com/hupe1980/toolmesh/provider"
	"github.com/hupe1980/toolmesh/retry"
	"github.com/hupe1980/toolmesh/tool"
)

// -------------------- Test Doubles --------------------

// scriptedProvider returns canned responses (or errors) in sequence.
type scriptedProvider struct {
	model     string
	responses []*core.Response
	errs      []error
	requests  []*core.Request
}

func (p *scriptedProvider) Complete(_ context.Context, req *core.Request) (*core.Response, error) {
	i := len(p.requests)
	p.requests = append(p.requests, req)
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	return p.responses[i], nil
}

func (p *scriptedProvider) Info() provider.Info {
	return provider.Info{Name: p.model, Vendor: "test", SupportsTools: true}
}

func textResponse(content string) *core.Response {
	return &core.Response{
		Choices: []core.Choice{{
			Message:      core.ChoiceMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	}
}

func toolCallResponse(id, name, args string) *core.Response {
	return &core.Response{
		Choices: []core.Choice{{
			Message: core.ChoiceMessage{
				Role: "assistant",
				ToolCalls: []core.RawToolCall{{
					ID:   id,
					Type: "function",
					Func: &core.RawFunction{Name: name, Arguments: json.RawMessage(args)},
				}},
			},
			FinishReason: "tool_calls",
		}},
	}
}

func echoRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	r.Register(tool.NewFunctionTool("echo", "Echo the message", map[string]any{
		"type":       "object",
		"properties": map[string]any{"msg": map[string]any{"type": "string"}},
		"required":   []string{"msg"},
	}, func(_ context.Context, args map[string]any) (any, error) {
		return args["msg"], nil
	}))
	return r
}

// capturingLogger records event names for assertions.
type capturingLogger struct {
	mu     sync.Mutex
	events []string
}

func (l *capturingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, msg)
}

func (l *capturingLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == msg {
			return true
		}
	}
	return false
}

func (l *capturingLogger) Debug(msg string, _ ...any) { l.record(msg) }
func (l *capturingLogger) Info(msg string, _ ...any)  { l.record(msg) }
func (l *capturingLogger) Warn(msg string, _ ...any)  { l.record(msg) }
func (l *capturingLogger) Error(msg string, _ ...any) { l.record(msg) }

// -------------------- Send Loop Tests --------------------

func TestSend_PlainAnswer(t *testing.T) {
	p := &scriptedProvider{model: "gpt-4o", responses: []*core.Response{
		textResponse("Just an answer."),
	}}
	mesh := New(p)

	result, err := mesh.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Just an answer.", result.Content)
	assert.Empty(t, result.ToolRuns)
	assert.Equal(t, 1, result.Invocations)
}

func TestSend_ToolCallLoop(t *testing.T) {
	p := &scriptedProvider{model: "gpt-4o", responses: []*core.Response{
		toolCallResponse("call_1", "echo", `{"msg": "pong"}`),
		textResponse("The tool said pong."),
	}}
	mesh := New(p, WithTools(echoRegistry(t)))

	result, err := mesh.Send(context.Background(), "ping the tool")
	require.NoError(t, err)
	assert.Equal(t, "The tool said pong.", result.Content)
	assert.Equal(t, 2, result.Invocations)

	require.Len(t, result.ToolRuns, 1)
	assert.True(t, result.ToolRuns[0].Result.Success)
	assert.Equal(t, "pong", result.ToolRuns[0].Result.Output)

	// Second request threads the tool result back to the provider.
	require.Len(t, p.requests, 2)
	second := p.requests[1]
	var toolMsg *core.Message
	for i := range second.Messages {
		if second.Messages[i].Role == "tool" {
			toolMsg = &second.Messages[i]
		}
	}
	require.NotNil(t, toolMsg)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Equal(t, "pong", toolMsg.Content)
}

func TestSend_HallucinationCorrection(t *testing.T) {
	p := &scriptedProvider{model: "llama-3.1-70b", responses: []*core.Response{
		textResponse("tool_outputs: {\"status\": \"done\"}"),
		textResponse("Understood, invoking the real tool is needed."),
	}}
	mesh := New(p, WithTools(echoRegistry(t)))

	result, err := mesh.Send(context.Background(), "do the thing")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Invocations)

	// The corrective instruction was injected between the two invocations.
	require.Len(t, p.requests, 2)
	last := p.requests[1].Messages[len(p.requests[1].Messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Contains(t, last.Content, "never fabricate")
}

func TestSend_RecoverableProviderRejection(t *testing.T) {
	p := &scriptedProvider{
		model: "llama-3.1-70b",
		errs: []error{
			errors.New(`400 tool_use_failed: {'failed_generation': '<function=echo {"msg": "hi"}></function>'}`),
			nil,
		},
		responses: []*core.Response{
			nil,
			textResponse("Recovered and done."),
		},
	}
	mesh := New(p, WithTools(echoRegistry(t)))

	result, err := mesh.Send(context.Background(), "greet")
	require.NoError(t, err)
	assert.Equal(t, "Recovered and done.", result.Content)

	require.Len(t, result.ToolRuns, 1)
	assert.Equal(t, "echo", result.ToolRuns[0].Call.Name)
	assert.Equal(t, "hi", result.ToolRuns[0].Result.Output)
}

func TestSend_TerminalProviderError(t *testing.T) {
	boom := errors.New("hard failure")
	p := &scriptedProvider{
		model:     "gpt-4o",
		errs:      []error{boom},
		responses: []*core.Response{nil},
	}
	mesh := New(p, func(o *Options) {
		// No retries so the test does not sit in backoff.
		o.Retry = retry.New(retry.WithMaxRetries(0))
	})

	_, err := mesh.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Same(t, boom, err)
}

func TestSend_TurnLimit(t *testing.T) {
	// The model keeps asking for the same tool forever.
	var responses []*core.Response
	for i := 0; i < 3; i++ {
		responses = append(responses, toolCallResponse("call_x", "echo", `{"msg": "again"}`))
	}
	p := &scriptedProvider{model: "gpt-4o", responses: responses}

	mesh := New(p, WithTools(echoRegistry(t)), func(o *Options) {
		o.MaxTurns = 3
	})

	result, err := mesh.Send(context.Background(), "loop forever")
	assert.ErrorIs(t, err, ErrTurnLimit)
	assert.Equal(t, 3, result.Invocations)
	assert.Len(t, result.ToolRuns, 3)
}

func TestNew_AdapterUsesConfiguredCollaborators(t *testing.T) {
	logger := &capturingLogger{}
	p := &scriptedProvider{model: "experimental-model-x", responses: []*core.Response{
		textResponse(`Running it now.` + "\n" + `<function=echo {"msg": "hi"}></function>`),
		textResponse("Done."),
	}}
	mesh := New(p, WithTools(echoRegistry(t)), WithLogger(logger))

	result, err := mesh.Send(context.Background(), "run the tool")
	require.NoError(t, err)

	// The fallback cascade ran inside the adapter and reported through the
	// mesh's logger, not a default NoOp one.
	require.Len(t, result.ToolRuns, 1)
	assert.Equal(t, "echo", result.ToolRuns[0].Call.Name)
	assert.True(t, logger.has("adapter.parse.fallback"))
}

func TestSend_SystemPromptSeeded(t *testing.T) {
	p := &scriptedProvider{model: "gemini-1.5-pro", responses: []*core.Response{
		textResponse("Ready."),
	}}
	mesh := New(p, WithSystemPrompt("You are concise."))

	_, err := mesh.Send(context.Background(), "hi")
	require.NoError(t, err)

	require.NotEmpty(t, p.requests)
	first := p.requests[0].Messages[0]
	assert.Equal(t, "system", first.Role)
	assert.Contains(t, first.Content, "You are concise.")
	// Family guidance is appended at request time, not stored.
	assert.Contains(t, first.Content, "NATIVE function calling")
	assert.NotContains(t, mesh.opts.Conversation.Messages()[0].Content, "NATIVE function calling")
}
