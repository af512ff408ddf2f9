package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Registry holds the active toolkits and the factories that build them.
// Toolkits keep registration order, so tool listings are deterministic.
type Registry struct {
	mu        sync.RWMutex
	order     []Toolkit
	byKey     map[string]Toolkit
	factories map[string]ToolkitFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:     make(map[string]Toolkit),
		factories: make(map[string]ToolkitFactory),
	}
}

// RegisterFactory registers a toolkit factory for a kind.
func (r *Registry) RegisterFactory(kind string, factory ToolkitFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Register adds a toolkit. A kind/name pair can only be registered once.
func (r *Registry) Register(toolkit Toolkit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := toolkitKey(toolkit.Kind(), toolkit.Name())
	if _, exists := r.byKey[key]; exists {
		return fmt.Errorf("toolkit %s already registered", key)
	}
	r.byKey[key] = toolkit
	r.order = append(r.order, toolkit)
	return nil
}

// CreateAndRegister builds a toolkit through its kind's factory and registers
// it.
func (r *Registry) CreateAndRegister(cfg ToolkitConfig) error {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Kind]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown toolkit kind: %s", cfg.Kind)
	}

	toolkit, err := factory(cfg.Name, cfg.Config)
	if err != nil {
		return fmt.Errorf("creating toolkit %s/%s: %w", cfg.Kind, cfg.Name, err)
	}
	return r.Register(toolkit)
}

// Get retrieves a toolkit by kind and name.
func (r *Registry) Get(kind, name string) (Toolkit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	toolkit, ok := r.byKey[toolkitKey(kind, name)]
	return toolkit, ok
}

// GetByKind retrieves the toolkits of one kind, in registration order.
func (r *Registry) GetByKind(kind string) []Toolkit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Toolkit
	for _, toolkit := range r.order {
		if toolkit.Kind() == kind {
			result = append(result, toolkit)
		}
	}
	return result
}

// All returns every registered toolkit, in registration order.
func (r *Registry) All() []Toolkit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Toolkit, len(r.order))
	copy(result, r.order)
	return result
}

// AllTools returns the tool names of every registered toolkit.
func (r *Registry) AllTools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tools []string
	for _, toolkit := range r.order {
		tools = append(tools, toolkit.Tools()...)
	}
	return tools
}

// GetToolkitForTool resolves a tool name to the toolkit that provides it.
// found is false when no registered toolkit claims the tool.
func (r *Registry) GetToolkitForTool(toolName string) (kind, name string, found bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, toolkit := range r.order {
		for _, tool := range toolkit.Tools() {
			if tool == toolName {
				return toolkit.Kind(), toolkit.Name(), true
			}
		}
	}
	return "", "", false
}

// RegisterAllTools registers every toolkit's tools with the MCP server.
func (r *Registry) RegisterAllTools(s *mcp.Server) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, toolkit := range r.order {
		toolkit.RegisterTools(s)
	}
}

// Close closes every toolkit, collecting all failures.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, toolkit := range r.order {
		if err := toolkit.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", toolkitKey(toolkit.Kind(), toolkit.Name()), err))
		}
	}
	return errors.Join(errs...)
}

func toolkitKey(kind, name string) string {
	return kind + ":" + name
}
