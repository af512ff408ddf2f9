// Package registry provides toolkit registration and management.
package registry

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Toolkit is the interface all composable toolkits implement.
type Toolkit interface {
	// Kind returns the toolkit type (e.g., "trino", "hive", "workflow", "cdp").
	Kind() string

	// Name returns the instance name from config.
	Name() string

	// RegisterTools registers all tools with the MCP server.
	RegisterTools(s *mcp.Server)

	// Tools returns the tool names provided by this toolkit.
	Tools() []string

	// Close releases resources.
	Close() error
}

// ToolkitFactory creates a toolkit from configuration. Factories typically
// close over shared dependencies (gate, executors, audit logger).
type ToolkitFactory func(name string, config map[string]any) (Toolkit, error)

// ToolkitConfig holds configuration for a toolkit instance.
type ToolkitConfig struct {
	Kind    string
	Name    string
	Enabled bool
	Config  map[string]any
}
