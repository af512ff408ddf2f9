// Package main provides the entry point for the td-mcp-server binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpserver "github.com/treasure-data/td-mcp-server-sub000/internal/server"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/health"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/platform"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath  string
	transport   string
	address     string
	showVersion bool
}

func parseFlags() serverOptions {
	opts := serverOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.transport, "transport", "", "Transport type: stdio, http")
	flag.StringVar(&opts.address, "address", "", "Server address for HTTP transport")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func createPlatform(opts serverOptions, logger *slog.Logger) (*platform.Platform, error) {
	if opts.configPath != "" {
		return mcpserver.New(opts.configPath, logger)
	}
	return mcpserver.NewFromEnv(logger)
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("td-mcp-server version %s\n", mcpserver.Version)
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	p, err := createPlatform(opts, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			logger.Error("closing platform", "error", cerr)
		}
	}()

	applyFlagOverrides(p, opts)

	ctx := setupSignalHandler()

	switch p.Config().Server.Transport {
	case "stdio":
		return serveStdio(ctx, p)
	case "http":
		return serveHTTP(ctx, p, logger)
	default:
		return fmt.Errorf("unknown transport: %s", p.Config().Server.Transport)
	}
}

// applyFlagOverrides lets command line flags win over config values.
func applyFlagOverrides(p *platform.Platform, opts serverOptions) {
	if opts.transport != "" {
		p.Config().Server.Transport = opts.transport
	}
	if opts.address != "" {
		p.Config().Server.Address = opts.address
	}
}

func serveStdio(ctx context.Context, p *platform.Platform) error {
	if err := p.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func serveHTTP(ctx context.Context, p *platform.Platform, logger *slog.Logger) error {
	checker := health.NewChecker()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.LivenessHandler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return p.MCPServer()
	}, nil))

	srv := &http.Server{
		Addr:              p.Config().Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "address", srv.Addr)
		checker.SetReady()
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	checker.SetDraining()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
