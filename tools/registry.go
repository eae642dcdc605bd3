// Tool registry and dispatcher.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Failure capture: execution never raises past this boundary

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"minder/llm"
	"minder/server"
)

// Registry holds the fixed set of tools available to the model.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// NewDefaultRegistry creates a registry with the full tool set wired to
// the given managed-server collaborator.
func NewDefaultRegistry(manager server.Manager) (*Registry, error) {
	registry := NewRegistry()

	all := []Tool{
		&getConfigTool{manager: manager},
		&setConfigTool{manager: manager},
		&getStatusTool{manager: manager},
		&startServerTool{manager: manager},
		&stopServerTool{manager: manager},
		&getLogsTool{manager: manager},
		&searchDocsTool{},
		&getDocTool{},
	}
	for _, t := range all {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("failed to register default tools: %w", err)
		}
	}
	return registry, nil
}

// Register adds a tool. Returns an error if the name is already taken.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Definition().Name
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool '%s' already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Definitions returns all tool definitions in registration order, in
// the shape the protocol adapters consume.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches a call by name. Every outcome is a structured
// Result: an unknown tool, a malformed argument object, and an
// execution error all become failed results, never panics or raised
// errors.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) Result {
	tool, ok := r.Get(name)
	if !ok {
		return FailureResultf("Unknown tool: %s", name)
	}

	if len(args) > 0 && !json.Valid(args) {
		return Result{
			Success: false,
			Message: fmt.Sprintf("Malformed arguments for %s", name),
		}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return Result{
			Success: false,
			Message: err.Error(),
			Note:    RemediationHint(err.Error()),
		}
	}
	return result
}
