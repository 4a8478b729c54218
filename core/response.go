package core

import (
	"bytes"
	"encoding/json"
)

// Response is the single internal envelope every vendor payload is decoded
// into before family logic runs. It is permissive on purpose: the same
// struct carries the OpenAI-compatible choice list, the Anthropic native
// content-block list and the Google native candidate list, and the adapter
// decides which shape to read based on the detected family.
type Response struct {
	ID         string      `json:"id,omitempty"`
	Model      string      `json:"model,omitempty"`
	Choices    []Choice    `json:"choices,omitempty"`
	Blocks     []Block     `json:"content,omitempty"`    // Anthropic native content blocks
	Candidates []Candidate `json:"candidates,omitempty"` // Google native candidates
	StopReason string      `json:"stop_reason,omitempty"`

	// Raw holds the undecoded payload for diagnostics. Never mutated.
	Raw json.RawMessage `json:"-"`
}

// Choice is one entry of the OpenAI-compatible choice list.
type Choice struct {
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason,omitempty"`
}

// ChoiceMessage is the assistant message of a choice.
type ChoiceMessage struct {
	Role      string        `json:"role,omitempty"`
	Content   string        `json:"content,omitempty"`
	ToolCalls []RawToolCall `json:"tool_calls,omitempty"`
}

// RawToolCall is the permissive decode target for a single wire tool call.
// Vendors disagree on key names: the id may arrive as "id" or "call_id",
// arguments may be nested under "function" or flat as "args"/"arguments",
// and the argument payload may be a JSON object or a string-encoded one.
type RawToolCall struct {
	ID     string       `json:"id,omitempty"`
	CallID string       `json:"call_id,omitempty"`
	Type   string       `json:"type,omitempty"`
	Func   *RawFunction `json:"function,omitempty"`

	// Flat Google-style pair.
	Name      string          `json:"name,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// RawFunction is the nested function object of an OpenAI-style tool call.
type RawFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Block is one Anthropic native content block. Only "text" and "tool_use"
// blocks are meaningful to the adapter; other types pass through untouched.
type Block struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Candidate is one Google native candidate.
type Candidate struct {
	Content CandidateContent `json:"content"`
}

// CandidateContent holds the ordered parts of a candidate.
type CandidateContent struct {
	Parts []CandidatePart `json:"parts,omitempty"`
}

// CandidatePart is one part of a Google candidate. The function-call field
// appears under either key depending on the serving stack.
type CandidatePart struct {
	Text             string          `json:"text,omitempty"`
	FunctionCall     *GoogleFuncCall `json:"functionCall,omitempty"`
	FunctionCallSnek *GoogleFuncCall `json:"function_call,omitempty"`
}

// Call returns the part's function call regardless of which key carried it.
func (p CandidatePart) Call() *GoogleFuncCall {
	if p.FunctionCall != nil {
		return p.FunctionCall
	}
	return p.FunctionCallSnek
}

// GoogleFuncCall is the {name, args} pair of a Google function call part.
// Args may be a JSON object or a string-encoded one.
type GoogleFuncCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// DecodeResponse normalizes a raw vendor payload into a Response envelope.
// Decode failures surface as an error here, at the boundary; past this
// point the envelope is trusted structure.
func DecodeResponse(raw []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	resp.Raw = append(json.RawMessage(nil), raw...)
	return &resp, nil
}

// DecodeArguments decodes a raw argument payload into a map, tolerating
// both a JSON object and a string-encoded JSON object (vendors occasionally
// double-encode). Failure yields an empty map, never an error: a single
// call's bad arguments must not abort the batch.
func DecodeArguments(raw json.RawMessage) map[string]any {
	args := map[string]any{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return args
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return args
		}
		if inner == "" {
			return args
		}
		trimmed = []byte(inner)
	}
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return map[string]any{}
	}
	return args
}
