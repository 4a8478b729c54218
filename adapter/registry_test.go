package adapter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// -------------------- Registry Tests --------------------

func TestRegistry_CachesPerModelID(t *testing.T) {
	r := NewRegistry()

	a1 := r.Get("gpt-4o")
	a2 := r.Get("gpt-4o")
	assert.Same(t, a1, a2)

	// Different raw spellings are different cache entries that behave alike.
	a3 := r.Get("GPT-4O")
	assert.NotSame(t, a1, a3)
	assert.Equal(t, a1.Family(), a3.Family())
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()

	a1 := r.Get("claude-3-opus")
	r.Reset()
	a2 := r.Get("claude-3-opus")
	assert.NotSame(t, a1, a2)
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	r := NewRegistry()

	const goroutines = 32
	adapters := make([]*Adapter, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			adapters[i] = r.Get("llama-3.1-70b")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, adapters[0], adapters[i])
	}
}

func TestPackageLevelRegistry(t *testing.T) {
	Reset()
	defer Reset()

	a1 := Get("deepseek-chat")
	a2 := Get("deepseek-chat")
	assert.Same(t, a1, a2)
	assert.Equal(t, FamilyDeepSeek, a1.Family())
}
