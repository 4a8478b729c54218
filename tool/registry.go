package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/toolmesh/core"
	"github.com/hupe1980/toolmesh/logging"
)

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	// Logger receives per-execution diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Registry holds the tools available to the mesh and executes them by name,
// translating every failure mode (missing tool, validation, execution error,
// panic) into a core.ToolExecutionResult so one bad call never aborts a batch.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger logging.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		tools:  map[string]Tool{},
		logger: opts.Logger,
	}
}

// Register adds a tool, replacing any previous registration under the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions renders the registered tools as wire declarations for a request.
func (r *Registry) Definitions() []core.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]core.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, core.ToolDefinition{
			Type: "function",
			Function: core.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute runs one tool by name and reports the outcome as a result value,
// never an error. Panics inside the tool are recovered and reported as a
// failed result so the surrounding batch keeps running.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result *core.ToolExecutionResult) {
	t, ok := r.Get(name)
	if !ok {
		r.logger.Warn("tool.execute.not_found", "tool", name)
		return &core.ToolExecutionResult{
			Success:   false,
			Error:     fmt.Sprintf("tool %q is not registered", name),
			ErrorKind: core.ErrorKindNotFound,
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool.execute.panic", "tool", name, "panic", fmt.Sprint(rec))
			result = &core.ToolExecutionResult{
				Success:   false,
				Error:     fmt.Sprintf("tool %s panicked: %v", name, rec),
				ErrorKind: core.ErrorKindPanic,
			}
		}
	}()

	start := time.Now()
	r.logger.Debug("tool.execute.start", "tool", name)

	out, err := t.Call(ctx, args)
	if err != nil {
		kind := core.ErrorKindExecution
		if toolErr, ok := err.(*ToolError); ok && toolErr.Code == "VALIDATION_ERROR" {
			kind = core.ErrorKindValidation
		}
		r.logger.Error("tool.execute.error", "tool", name, "error", err.Error())
		return &core.ToolExecutionResult{
			Success:   false,
			Error:     err.Error(),
			ErrorKind: kind,
		}
	}

	r.logger.Info("tool.execute.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return &core.ToolExecutionResult{
		Success: true,
		Output:  renderOutput(out),
	}
}

// renderOutput turns a tool's return value into the textual form recorded in
// conversation history. Strings pass through; everything else is JSON.
func renderOutput(out any) string {
	switch v := out.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
