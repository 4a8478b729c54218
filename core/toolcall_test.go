package core

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Wire Round-Trip Tests --------------------

func TestAPIFormat_RoundTrip(t *testing.T) {
	original := ToolCall{
		ID:   "call_rt",
		Name: "write_file",
		Arguments: map[string]any{
			"file_path": "a.txt",
			"content":   "line1\nline2",
			"append":    true,
			"retries":   float64(3),
		},
	}

	api := original.APIFormat()
	require.Equal(t, "function", api.Type)

	// Re-enter through the OpenAI-compatible decode path.
	payload := fmt.Sprintf(
		`{"choices": [{"message": {"role": "assistant", "tool_calls": [%s]}, "finish_reason": "tool_calls"}]}`,
		mustMarshal(t, api))
	resp, err := DecodeResponse([]byte(payload))
	require.NoError(t, err)

	require.Len(t, resp.Choices, 1)
	require.Len(t, resp.Choices[0].Message.ToolCalls, 1)
	raw := resp.Choices[0].Message.ToolCalls[0]

	assert.Equal(t, original.ID, raw.ID)
	require.NotNil(t, raw.Func)
	assert.Equal(t, original.Name, raw.Func.Name)
	assert.Equal(t, original.Arguments, DecodeArguments(raw.Func.Arguments))
}

func TestAPIFormat_EmptyArgumentsDefaultObject(t *testing.T) {
	api := ToolCall{ID: "call_0", Name: "pwd"}.APIFormat()
	assert.Equal(t, "{}", api.Function.Arguments)
	assert.Empty(t, DecodeArguments(json.RawMessage(api.Function.Arguments)))
}

func mustMarshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
