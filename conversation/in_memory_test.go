package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/toolmesh/core"
)

func TestInMemoryStore_Ordering(t *testing.T) {
	s := NewInMemoryStore()
	assert.NotEmpty(t, s.ID())

	s.AddMessage("system", "be helpful", nil)
	s.AddMessage("user", "list files", nil)
	s.AddMessage("assistant", "", []core.APIToolCall{{
		ID:   "c1",
		Type: "function",
		Function: core.APIFunction{
			Name:      "list_files",
			Arguments: `{"path": "/tmp"}`,
		},
	}})
	s.AddToolResult("c1", "list_files", &core.ToolExecutionResult{Success: true, Output: "a.txt\nb.txt"})

	msgs := s.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
	require.Len(t, msgs[2].ToolCalls, 1)

	assert.Equal(t, "tool", msgs[3].Role)
	assert.Equal(t, "c1", msgs[3].ToolCallID)
	assert.Equal(t, "list_files", msgs[3].Name)
	assert.Equal(t, "a.txt\nb.txt", msgs[3].Content)
}

func TestInMemoryStore_FailedResultContent(t *testing.T) {
	s := NewInMemoryStore()
	s.AddToolResult("c1", "read_file", &core.ToolExecutionResult{
		Success:   false,
		Error:     "file not found",
		ErrorKind: core.ErrorKindExecution,
	})

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Error: file not found", msgs[0].Content)
}

func TestInMemoryStore_SnapshotIsolation(t *testing.T) {
	s := NewInMemoryStore()
	s.AddMessage("user", "hello", nil)

	snapshot := s.Messages()
	snapshot[0].Content = "mutated"

	assert.Equal(t, "hello", s.Messages()[0].Content)
}

func TestInMemoryStore_Reset(t *testing.T) {
	s := NewInMemoryStore()
	id := s.ID()

	s.AddMessage("user", "hello", nil)
	assert.Equal(t, 1, s.Len())

	s.Reset()
	assert.Zero(t, s.Len())
	assert.Equal(t, id, s.ID())
}
