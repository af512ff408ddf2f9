// Package hive provides the Hive job toolkit.
package hive

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/middleware"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
	hiveclient "github.com/treasure-data/td-mcp-server-sub000/pkg/query/hive"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/internal/result"
)

// Tool names.
const (
	toolQueryHive = "query_hive"
	toolJobStatus = "hive_job_status"
	toolKillJob   = "kill_job"
)

// Engine is the Hive job surface the toolkit drives.
type Engine interface {
	Execute(ctx context.Context, sqlText, database string) (*query.Result, error)
	Status(ctx context.Context, jobID string) (*hiveclient.JobStatus, error)
	Kill(ctx context.Context, jobID string) error
	Close() error
}

// Config holds toolkit configuration.
type Config struct {
	DefaultDatabase string `yaml:"default_database"`
}

// Toolkit implements the Hive toolkit.
type Toolkit struct {
	name   string
	config Config
	gate   *query.Gate
	engine Engine
}

// New creates a Hive toolkit.
func New(name string, cfg Config, gate *query.Gate, engine Engine) (*Toolkit, error) {
	if gate == nil {
		return nil, fmt.Errorf("access gate is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("hive engine is required")
	}
	return &Toolkit{name: name, config: cfg, gate: gate, engine: engine}, nil
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "hive"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// Tools returns the tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{toolQueryHive, toolJobStatus, toolKillJob}
}

// Close releases the engine.
func (t *Toolkit) Close() error {
	return t.engine.Close()
}

type queryHiveInput struct {
	SQL      string `json:"sql"`
	Database string `json:"database,omitempty"`
}

type jobStatusInput struct {
	JobID string `json:"job_id"`
}

type killJobInput struct {
	JobID string `json:"job_id"`
}

// RegisterTools registers all tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: toolQueryHive,
		Description: "Run a SQL query on the Hive engine and wait for the result. " +
			"Hive jobs can take minutes; prefer the Trino query tool for interactive work.",
	}, t.handleQueryHive)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolJobStatus,
		Description: "Fetch the status of a Hive job by job ID.",
	}, t.handleJobStatus)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolKillJob,
		Description: "Request cancellation of a running Hive job.",
	}, t.handleKillJob)
}

func (t *Toolkit) handleQueryHive(ctx context.Context, _ *mcp.CallToolRequest, in queryHiveInput) (*mcp.CallToolResult, any, error) {
	outcome := t.gate.Validate(in.SQL)
	database := in.Database
	if database == "" {
		database = t.config.DefaultDatabase
	}
	cc := middleware.GetCallContext(ctx)
	if cc != nil {
		cc.SetQuery(outcome.Kind, in.SQL, database)
	}
	if !outcome.Accepted {
		return result.ErrorText(outcome.Reason), nil, nil
	}

	res, err := t.engine.Execute(ctx, in.SQL, database)
	if err != nil {
		return result.Error(err), nil, nil
	}
	if cc != nil {
		cc.SetRowCount(int64(res.Count))
	}
	return result.JSON(res)
}

func (t *Toolkit) handleJobStatus(ctx context.Context, _ *mcp.CallToolRequest, in jobStatusInput) (*mcp.CallToolResult, any, error) {
	if in.JobID == "" {
		return result.ErrorText("job_id is required"), nil, nil
	}
	status, err := t.engine.Status(ctx, in.JobID)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(status)
}

func (t *Toolkit) handleKillJob(ctx context.Context, _ *mcp.CallToolRequest, in killJobInput) (*mcp.CallToolResult, any, error) {
	if in.JobID == "" {
		return result.ErrorText("job_id is required"), nil, nil
	}
	if err := t.engine.Kill(ctx, in.JobID); err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"job_id": in.JobID, "killed": true})
}
