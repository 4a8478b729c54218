package core

// Message is one conversation entry in provider wire order. Assistant
// messages may carry re-serialized tool calls; tool messages echo the
// originating call id so providers can thread results correctly.
type Message struct {
	Role       string        `json:"role"`
	Content    string        `json:"content,omitempty"`
	ToolCalls  []APIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Name       string        `json:"name,omitempty"`
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input shaped by a family adapter
// and consumed by a provider.
type Request struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// ErrorKind categorizes a failed tool execution.
type ErrorKind string

const (
	// ErrorKindValidation marks argument/schema mismatches.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindExecution marks failures inside the tool implementation.
	ErrorKindExecution ErrorKind = "execution"
	// ErrorKindNotFound marks calls to unregistered tools.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindSkipped marks calls vetoed by the confirmation callback.
	ErrorKindSkipped ErrorKind = "skipped"
	// ErrorKindPanic marks executions recovered from a panic.
	ErrorKindPanic ErrorKind = "panic"
)

// ToolExecutionResult is the outcome of a single tool invocation as recorded
// into the conversation. Output may be truncated by the orchestrator before
// persistence.
type ToolExecutionResult struct {
	Success   bool      `json:"success"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}
