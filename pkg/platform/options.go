package platform

import (
	"log/slog"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/audit"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/client"
	cdptk "github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/cdp"
	hivetk "github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/hive"
	trinotk "github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/trino"
	workflowtk "github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/workflow"
)

// Options holds construction-time overrides. Tests use these to substitute
// fakes for the real Treasure Data endpoints.
type Options struct {
	Config *Config
	Logger *slog.Logger

	TDClient        *client.Client
	TrinoBackend    trinotk.Backend
	HiveEngine      hivetk.Engine
	WorkflowService workflowtk.Service
	CDPService      cdptk.Service
	AuditLogger     audit.Logger
}

// Option configures the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) { o.Config = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithTDClient sets the REST client.
func WithTDClient(c *client.Client) Option {
	return func(o *Options) { o.TDClient = c }
}

// WithTrinoBackend sets the Trino backend.
func WithTrinoBackend(b trinotk.Backend) Option {
	return func(o *Options) { o.TrinoBackend = b }
}

// WithHiveEngine sets the Hive engine.
func WithHiveEngine(e hivetk.Engine) Option {
	return func(o *Options) { o.HiveEngine = e }
}

// WithWorkflowService sets the workflow service.
func WithWorkflowService(s workflowtk.Service) Option {
	return func(o *Options) { o.WorkflowService = s }
}

// WithCDPService sets the CDP service.
func WithCDPService(s cdptk.Service) Option {
	return func(o *Options) { o.CDPService = s }
}

// WithAuditLogger sets the audit logger.
func WithAuditLogger(l audit.Logger) Option {
	return func(o *Options) { o.AuditLogger = l }
}
