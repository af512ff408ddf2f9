package platform

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/audit"
	auditpg "github.com/treasure-data/td-mcp-server-sub000/pkg/audit/postgres"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/cdp"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/client"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/middleware"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/query/hive"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/query/trino"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/registry"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/workflow"

	cdptk "github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/cdp"
	hivetk "github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/hive"
	trinotk "github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/trino"
	workflowtk "github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/workflow"
)

// Platform assembles the Treasure Data clients, the access gate, the toolkit
// registry and the MCP server.
type Platform struct {
	config *Config
	logger *slog.Logger

	mcpServer *mcp.Server
	tdClient  *client.Client
	gate      *query.Gate
	registry  *registry.Registry
	schema    query.SchemaReader

	auditLogger audit.Logger
}

// New creates a platform instance from configuration.
func New(opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := options.Config.Validate(); err != nil {
		return nil, err
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}

	p := &Platform{
		config:   options.Config,
		logger:   options.Logger,
		gate:     query.NewGate(query.AccessPolicy{AllowWrites: options.Config.TD.EnableUpdates}),
		registry: registry.NewRegistry(),
	}

	if err := p.initClient(options); err != nil {
		return nil, err
	}
	if err := p.initAudit(options); err != nil {
		return nil, err
	}
	if err := p.initToolkits(options); err != nil {
		return nil, err
	}
	p.initServer()

	return p, nil
}

func (p *Platform) initClient(opts *Options) error {
	if opts.TDClient != nil {
		p.tdClient = opts.TDClient
		return nil
	}
	td, err := client.New(client.Config{
		APIKey:  p.config.TD.APIKey,
		Site:    client.Site(p.config.TD.Site),
		Timeout: p.config.TD.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating td client: %w", err)
	}
	p.tdClient = td
	return nil
}

func (p *Platform) initAudit(opts *Options) error {
	if opts.AuditLogger != nil {
		p.auditLogger = opts.AuditLogger
		return nil
	}
	if !p.config.Audit.Enabled {
		p.auditLogger = audit.NopLogger{}
		return nil
	}
	if p.config.Audit.DSN != "" {
		store, err := auditpg.Open(p.config.Audit.DSN, auditpg.Config{
			RetentionDays: p.config.Audit.RetentionDays,
		})
		if err != nil {
			return fmt.Errorf("opening audit store: %w", err)
		}
		p.auditLogger = store
		return nil
	}
	p.auditLogger = audit.NewSlogLogger(p.logger)
	return nil
}

// initToolkits installs a factory per toolkit kind, then instantiates the
// enabled ones through the registry. Factories close over the shared gate,
// clients and any test overrides.
func (p *Platform) initToolkits(opts *Options) error {
	site := client.Site(p.config.TD.Site)

	p.registry.RegisterFactory("trino", func(name string, _ map[string]any) (registry.Toolkit, error) {
		backend := opts.TrinoBackend
		if backend == nil {
			adapter, err := trino.New(trino.Config{
				Host:    p.trinoHost(site),
				Port:    p.config.Trino.Port,
				User:    p.config.TD.APIKey,
				Catalog: p.config.Trino.Catalog,
				Schema:  p.config.TD.Database,
				SSL:     true,
			})
			if err != nil {
				return nil, err
			}
			backend = adapter
		}
		p.schema = backend
		return trinotk.New(name, trinotk.Config{
			DefaultDatabase: p.config.TD.Database,
			DefaultLimit:    p.config.Trino.DefaultLimit,
			MaxLimit:        p.config.Trino.MaxLimit,
		}, p.gate, backend)
	})

	p.registry.RegisterFactory("hive", func(name string, _ map[string]any) (registry.Toolkit, error) {
		engine := opts.HiveEngine
		if engine == nil {
			var hiveOpts []hive.Option
			if p.config.Hive.PollInterval > 0 {
				hiveOpts = append(hiveOpts, hive.WithPollInterval(p.config.Hive.PollInterval))
			}
			engine = hive.New(p.tdClient, hiveOpts...)
		}
		return hivetk.New(name, hivetk.Config{
			DefaultDatabase: p.config.TD.Database,
		}, p.gate, engine)
	})

	p.registry.RegisterFactory("workflow", func(name string, _ map[string]any) (registry.Toolkit, error) {
		service := opts.WorkflowService
		if service == nil {
			service = workflow.New(p.tdClient.ForHost(site.WorkflowHost()))
		}
		return workflowtk.New(name, service, p.config.TD.EnableUpdates)
	})

	p.registry.RegisterFactory("cdp", func(name string, _ map[string]any) (registry.Toolkit, error) {
		service := opts.CDPService
		if service == nil {
			service = cdp.New(p.tdClient.ForHost(site.CDPHost()))
		}
		return cdptk.New(name, service, p.config.TD.EnableUpdates)
	})

	for _, tc := range p.enabledToolkits() {
		if err := p.registry.CreateAndRegister(tc); err != nil {
			return fmt.Errorf("initializing %s toolkit: %w", tc.Kind, err)
		}
	}
	return nil
}

func (p *Platform) enabledToolkits() []registry.ToolkitConfig {
	var configs []registry.ToolkitConfig
	add := func(kind string, disabled bool) {
		if !disabled {
			configs = append(configs, registry.ToolkitConfig{Kind: kind, Name: "default", Enabled: true})
		}
	}
	add("trino", p.config.Trino.Disabled)
	add("hive", p.config.Hive.Disabled)
	add("workflow", p.config.Workflow.Disabled)
	add("cdp", p.config.CDP.Disabled)
	return configs
}

// trinoHost resolves the query endpoint, preferring an explicit override.
func (p *Platform) trinoHost(site client.Site) string {
	if p.config.Trino.Host != "" {
		return p.config.Trino.Host
	}
	return site.PrestoHost()
}

func (p *Platform) initServer() {
	p.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    p.config.Server.Name,
		Version: p.config.Server.Version,
	}, nil)

	p.mcpServer.AddReceivingMiddleware(
		middleware.MCPToolCallMiddleware(p.registry),
		middleware.MCPLoggingMiddleware(p.logger),
		middleware.MCPAuditMiddleware(p.auditLogger),
	)

	p.registry.RegisterAllTools(p.mcpServer)
	p.registerInfoTool()
	p.registerResourceTemplates()
}

// MCPServer returns the assembled MCP server.
func (p *Platform) MCPServer() *mcp.Server {
	return p.mcpServer
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Registry returns the toolkit registry.
func (p *Platform) Registry() *registry.Registry {
	return p.registry
}

// Close releases toolkit backends and the audit sink.
func (p *Platform) Close() error {
	var errs []error

	if err := p.registry.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.auditLogger.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing platform: %v", errs)
	}
	return nil
}
