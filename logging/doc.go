// Package logging provides a minimal logging interface and adapters for ToolMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that adapters, the processor and the retry handler use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - MeshLogger with contextual helpers for models, families and tool runs
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh := toolmesh.New(provider, toolmesh.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
