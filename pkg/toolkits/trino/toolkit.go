// Package trino provides the Trino query toolkit: database discovery plus the
// gated read and write query tools.
package trino

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/middleware"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/internal/result"
)

// Tool names.
const (
	toolListDatabases = "list_databases"
	toolListTables    = "list_tables"
	toolDescribeTable = "describe_table"
	toolQuery         = "query"
	toolExecute       = "execute"
)

const (
	defaultQueryLimit = 1000
	defaultMaxLimit   = 10000
)

// Backend is the engine surface the toolkit drives.
type Backend interface {
	query.Executor
	query.SchemaReader
}

// Config holds toolkit configuration.
type Config struct {
	DefaultDatabase string `yaml:"default_database"`
	DefaultLimit    int    `yaml:"default_limit"`
	MaxLimit        int    `yaml:"max_limit"`
}

// Toolkit implements the Trino toolkit.
type Toolkit struct {
	name    string
	config  Config
	gate    *query.Gate
	backend Backend
}

// New creates a Trino toolkit.
func New(name string, cfg Config, gate *query.Gate, backend Backend) (*Toolkit, error) {
	if gate == nil {
		return nil, fmt.Errorf("access gate is required")
	}
	if backend == nil {
		return nil, fmt.Errorf("trino backend is required")
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = defaultQueryLimit
	}
	if cfg.MaxLimit == 0 {
		cfg.MaxLimit = defaultMaxLimit
	}
	return &Toolkit{name: name, config: cfg, gate: gate, backend: backend}, nil
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "trino"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// Tools returns the tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{toolListDatabases, toolListTables, toolDescribeTable, toolQuery, toolExecute}
}

// Close releases the backend.
func (t *Toolkit) Close() error {
	return t.backend.Close()
}

type listDatabasesInput struct{}

type listTablesInput struct {
	Database string `json:"database,omitempty"`
}

type describeTableInput struct {
	Database string `json:"database,omitempty"`
	Table    string `json:"table"`
}

type queryInput struct {
	SQL      string `json:"sql"`
	Database string `json:"database,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type executeInput struct {
	SQL      string `json:"sql"`
	Database string `json:"database,omitempty"`
}

// RegisterTools registers all tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListDatabases,
		Description: "List all databases in the Treasure Data account.",
	}, t.handleListDatabases)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListTables,
		Description: "List tables in a database. Defaults to the configured database.",
	}, t.handleListTables)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolDescribeTable,
		Description: "Show the column schema of a table.",
	}, t.handleDescribeTable)

	mcp.AddTool(s, &mcp.Tool{
		Name: toolQuery,
		Description: "Run a read-only SQL query (SELECT, SHOW, DESCRIBE) on the Trino engine. " +
			"A LIMIT clause is added when the query has none.",
	}, t.handleQuery)

	mcp.AddTool(s, &mcp.Tool{
		Name: toolExecute,
		Description: "Run a write SQL statement (INSERT, UPDATE, DELETE, CREATE, DROP, ALTER, MERGE) " +
			"on the Trino engine. Requires enable_updates to be set.",
	}, t.handleExecute)
}

func (t *Toolkit) handleListDatabases(ctx context.Context, _ *mcp.CallToolRequest, _ listDatabasesInput) (*mcp.CallToolResult, any, error) {
	databases, err := t.backend.ListDatabases(ctx)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"databases": databases})
}

func (t *Toolkit) handleListTables(ctx context.Context, _ *mcp.CallToolRequest, in listTablesInput) (*mcp.CallToolResult, any, error) {
	database := t.database(in.Database)
	tables, err := t.backend.ListTables(ctx, database)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"database": database, "tables": tables})
}

func (t *Toolkit) handleDescribeTable(ctx context.Context, _ *mcp.CallToolRequest, in describeTableInput) (*mcp.CallToolResult, any, error) {
	if in.Table == "" {
		return result.ErrorText("table is required"), nil, nil
	}
	desc, err := t.backend.DescribeTable(ctx, t.database(in.Database), in.Table)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(desc)
}

// handleQuery is the read path: validate, bound, execute.
func (t *Toolkit) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, in queryInput) (*mcp.CallToolResult, any, error) {
	outcome := t.gate.Validate(in.SQL)
	database := t.database(in.Database)
	cc := middleware.GetCallContext(ctx)
	if cc != nil {
		cc.SetQuery(outcome.Kind, in.SQL, database)
	}
	if !outcome.Accepted {
		return result.ErrorText(outcome.Reason), nil, nil
	}

	sqlText := in.SQL
	if outcome.Kind == query.KindSelect && !query.HasLimit(sqlText) {
		sqlText = query.EnsureLimit(sqlText, t.limit(in.Limit))
	}

	res, err := t.backend.Execute(ctx, sqlText, database)
	if err != nil {
		return result.Error(err), nil, nil
	}
	if cc != nil {
		cc.SetRowCount(int64(res.Count))
	}
	return result.JSON(res)
}

// handleExecute is the write path: validate, require a write kind, execute.
func (t *Toolkit) handleExecute(ctx context.Context, _ *mcp.CallToolRequest, in executeInput) (*mcp.CallToolResult, any, error) {
	outcome := t.gate.Validate(in.SQL)
	database := t.database(in.Database)
	cc := middleware.GetCallContext(ctx)
	if cc != nil {
		cc.SetQuery(outcome.Kind, in.SQL, database)
	}
	if !outcome.Accepted {
		return result.ErrorText(outcome.Reason), nil, nil
	}
	if !query.IsWriteOperation(outcome.Kind) {
		return result.ErrorText(fmt.Sprintf(
			"%s is not a write operation. Use the %s tool for read-only statements.",
			outcome.Kind, toolQuery)), nil, nil
	}

	res, err := t.backend.Execute(ctx, in.SQL, database)
	if err != nil {
		return result.Error(err), nil, nil
	}
	if cc != nil {
		cc.SetRowCount(res.AffectedRows)
	}
	return result.JSON(map[string]any{
		"kind":          string(outcome.Kind),
		"affected_rows": res.AffectedRows,
	})
}

func (t *Toolkit) database(requested string) string {
	if requested != "" {
		return requested
	}
	return t.config.DefaultDatabase
}

// limit clamps the requested row limit into [1, MaxLimit], defaulting when
// unset.
func (t *Toolkit) limit(requested int) int {
	if requested <= 0 {
		return t.config.DefaultLimit
	}
	if requested > t.config.MaxLimit {
		return t.config.MaxLimit
	}
	return requested
}
