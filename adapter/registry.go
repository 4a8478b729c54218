package adapter

import "sync"

// Registry caches one Adapter per distinct raw model id for process lifetime.
// Two different spellings of the same model ("GPT-4" and "gpt-4") get two
// cache entries that behave identically; keying on the raw id keeps lookups
// allocation free.
type Registry struct {
	adapters sync.Map // raw model id -> *Adapter
	optFns   []func(o *Options)
}

// NewRegistry creates a registry. Option functions are applied to every
// adapter the registry constructs.
func NewRegistry(optFns ...func(o *Options)) *Registry {
	return &Registry{optFns: optFns}
}

// Get returns the cached adapter for a model id, constructing it on first
// use. Concurrent first lookups may both construct; LoadOrStore guarantees
// all callers observe the same instance afterwards.
func (r *Registry) Get(modelID string) *Adapter {
	if cached, ok := r.adapters.Load(modelID); ok {
		return cached.(*Adapter)
	}
	actual, _ := r.adapters.LoadOrStore(modelID, New(modelID, r.optFns...))
	return actual.(*Adapter)
}

// Reset drops all cached adapters. Intended for tests.
func (r *Registry) Reset() {
	r.adapters.Range(func(key, _ any) bool {
		r.adapters.Delete(key)
		return true
	})
}

// defaultRegistry backs the package-level convenience lookups.
var defaultRegistry = NewRegistry()

// Get returns an adapter from the package-level registry.
func Get(modelID string) *Adapter { return defaultRegistry.Get(modelID) }

// Reset clears the package-level registry. Intended for tests.
func Reset() { defaultRegistry.Reset() }
