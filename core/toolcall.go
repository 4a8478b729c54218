package core

import "encoding/json"

// FinishReason is the normalized completion status of a response.
type FinishReason string

const (
	// FinishStop indicates a natural completion.
	FinishStop FinishReason = "stop"
	// FinishToolCalls indicates the model requested tool execution.
	FinishToolCalls FinishReason = "tool_calls"
	// FinishLength indicates the response was cut by the token limit.
	FinishLength FinishReason = "length"
	// FinishError indicates the vendor reported a generation error.
	FinishError FinishReason = "error"
	// FinishUnknown covers everything a vendor invents beyond the above.
	FinishUnknown FinishReason = "unknown"
)

// NormalizeFinishReason maps an arbitrary vendor finish string onto the
// closed FinishReason set. Anthropic's end_turn / max_tokens spellings are
// folded in so callers never see vendor vocabulary.
func NormalizeFinishReason(s string) FinishReason {
	switch s {
	case "stop", "end_turn", "stop_sequence":
		return FinishStop
	case "tool_calls", "tool_use", "function_call":
		return FinishToolCalls
	case "length", "max_tokens":
		return FinishLength
	case "error", "content_filter":
		return FinishError
	case "":
		return FinishStop
	default:
		return FinishUnknown
	}
}

// ToolCall is the normalized tool invocation every adapter converts its
// model-specific format into. Arguments are decoded best-effort even from
// malformed input; Name is never empty for a call that reaches execution.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// APIToolCall is the produced wire format used when re-serializing a
// normalized call into conversation history for continuation.
type APIToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"` // always "function"
	Function APIFunction `json:"function"`
}

// APIFunction carries the function target with JSON-string arguments.
type APIFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// APIFormat re-serializes the call into the OpenAI-compatible wire shape.
// Argument marshalling of a decoded map cannot fail; a defensive empty
// object is used if it somehow does.
func (tc ToolCall) APIFormat() APIToolCall {
	args := "{}"
	if len(tc.Arguments) > 0 {
		if b, err := json.Marshal(tc.Arguments); err == nil {
			args = string(b)
		}
	}
	return APIToolCall{
		ID:   tc.ID,
		Type: "function",
		Function: APIFunction{
			Name:      tc.Name,
			Arguments: args,
		},
	}
}

// ParsedResponse is the normalized result of adapter parsing: plain content
// with all tool-call syntax stripped, the ordered extracted calls, and the
// normalized finish reason. Raw is a diagnostic handle, never mutated.
type ParsedResponse struct {
	Content      string          `json:"content"`
	ToolCalls    []ToolCall      `json:"tool_calls,omitempty"`
	FinishReason FinishReason    `json:"finish_reason"`
	Raw          json.RawMessage `json:"-"`
}

// HasToolCalls reports whether any tool calls were extracted.
func (p *ParsedResponse) HasToolCalls() bool { return len(p.ToolCalls) > 0 }
