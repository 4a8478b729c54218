// Package conversation maintains the message history threaded between model
// invocations: system and user turns, assistant turns with re-serialized
// tool calls, and tool-result turns echoing their originating call ids.
package conversation

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/toolmesh/core"
)

// InMemoryStore is a volatile conversation store keeping history in a process
// local slice. It is safe for concurrent access and best suited for tests or
// single-session CLI runs. Snapshots are copied to prevent external mutation
// of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	id       string
	messages []core.Message
}

// NewInMemoryStore constructs an empty in-memory conversation store with a
// generated conversation id.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{id: uuid.NewString()}
}

// ID returns the conversation identifier.
func (s *InMemoryStore) ID() string { return s.id }

// AddMessage appends one conversation turn. Assistant turns may carry
// re-serialized tool calls.
func (s *InMemoryStore) AddMessage(role, content string, toolCalls []core.APIToolCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, core.Message{
		Role:      role,
		Content:   content,
		ToolCalls: toolCalls,
	})
}

// AddToolResult appends a tool-result turn echoing the originating call id so
// providers can thread it back to the request.
func (s *InMemoryStore) AddToolResult(callID, name string, result *core.ToolExecutionResult) {
	content := result.Output
	if !result.Success {
		content = fmt.Sprintf("Error: %s", result.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, core.Message{
		Role:       "tool",
		Content:    content,
		ToolCallID: callID,
		Name:       name,
	})
}

// Messages returns a snapshot of the history in insertion order.
func (s *InMemoryStore) Messages() []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]core.Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

// Len returns the number of stored turns.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Reset drops all history while keeping the conversation id.
func (s *InMemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
