// Package server provides a factory for creating the MCP server.
package server

import (
	"fmt"
	"log/slog"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/platform"
)

// Version is set at build time.
var Version = "dev"

// New creates a platform from a configuration file.
func New(configPath string, logger *slog.Logger) (*platform.Platform, error) {
	cfg, err := platform.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return build(cfg, logger)
}

// NewFromEnv creates a platform from TD_* environment variables alone.
func NewFromEnv(logger *slog.Logger) (*platform.Platform, error) {
	return build(platform.LoadFromEnv(), logger)
}

func build(cfg *platform.Config, logger *slog.Logger) (*platform.Platform, error) {
	if cfg.Server.Version == "" {
		cfg.Server.Version = Version
	}
	return platform.New(
		platform.WithConfig(cfg),
		platform.WithLogger(logger),
	)
}
