// Package workflow provides the Digdag workflow toolkit.
package workflow

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/internal/result"
	wf "github.com/treasure-data/td-mcp-server-sub000/pkg/workflow"
)

// Tool names.
const (
	toolListWorkflows = "list_workflows"
	toolGetWorkflow   = "get_workflow"
	toolListSessions  = "list_workflow_sessions"
	toolListAttempts  = "list_workflow_attempts"
	toolStartWorkflow = "start_workflow"
	toolRetryAttempt  = "retry_workflow_attempt"
	toolKillAttempt   = "kill_workflow_attempt"
)

// Service is the workflow API surface the toolkit drives.
type Service interface {
	ListWorkflows(ctx context.Context, limit int) ([]wf.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*wf.Workflow, error)
	ListSessions(ctx context.Context, limit int) ([]wf.Session, error)
	ListAttempts(ctx context.Context, workflowName string, limit int) ([]wf.Attempt, error)
	StartAttempt(ctx context.Context, workflowID, sessionTime string, params map[string]any) (*wf.Attempt, error)
	RetryAttempt(ctx context.Context, attemptID, retryName, resumeFrom string) (*wf.Attempt, error)
	KillAttempt(ctx context.Context, attemptID string) error
}

// Toolkit implements the workflow toolkit. Start, retry and kill are only
// registered when writes are enabled.
type Toolkit struct {
	name         string
	service      Service
	allowUpdates bool
}

// New creates a workflow toolkit.
func New(name string, service Service, allowUpdates bool) (*Toolkit, error) {
	if service == nil {
		return nil, fmt.Errorf("workflow service is required")
	}
	return &Toolkit{name: name, service: service, allowUpdates: allowUpdates}, nil
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "workflow"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// Tools returns the tool names provided by this toolkit.
func (t *Toolkit) Tools() []string {
	tools := []string{toolListWorkflows, toolGetWorkflow, toolListSessions, toolListAttempts}
	if t.allowUpdates {
		tools = append(tools, toolStartWorkflow, toolRetryAttempt, toolKillAttempt)
	}
	return tools
}

// Close is a no-op; the toolkit shares the platform HTTP client.
func (*Toolkit) Close() error {
	return nil
}

type listWorkflowsInput struct {
	Limit int `json:"limit,omitempty"`
}

type getWorkflowInput struct {
	WorkflowID string `json:"workflow_id"`
}

type listSessionsInput struct {
	Limit int `json:"limit,omitempty"`
}

type listAttemptsInput struct {
	WorkflowName string `json:"workflow_name,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

type startWorkflowInput struct {
	WorkflowID  string         `json:"workflow_id"`
	SessionTime string         `json:"session_time,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

type retryAttemptInput struct {
	AttemptID  string `json:"attempt_id"`
	RetryName  string `json:"retry_name,omitempty"`
	ResumeFrom string `json:"resume_from,omitempty"`
}

type killAttemptInput struct {
	AttemptID string `json:"attempt_id"`
}

// RegisterTools registers all tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListWorkflows,
		Description: "List registered workflows.",
	}, t.handleListWorkflows)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetWorkflow,
		Description: "Get a workflow by ID, including its project and timezone.",
	}, t.handleGetWorkflow)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListSessions,
		Description: "List recent workflow sessions with their last attempt.",
	}, t.handleListSessions)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListAttempts,
		Description: "List workflow attempts, optionally filtered by workflow name.",
	}, t.handleListAttempts)

	if !t.allowUpdates {
		return
	}

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolStartWorkflow,
		Description: "Start a new attempt for a workflow.",
	}, t.handleStartWorkflow)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolRetryAttempt,
		Description: "Retry a finished workflow attempt, optionally resuming from a task.",
	}, t.handleRetryAttempt)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolKillAttempt,
		Description: "Request cancellation of a running workflow attempt.",
	}, t.handleKillAttempt)
}

func (t *Toolkit) handleListWorkflows(ctx context.Context, _ *mcp.CallToolRequest, in listWorkflowsInput) (*mcp.CallToolResult, any, error) {
	workflows, err := t.service.ListWorkflows(ctx, in.Limit)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"workflows": workflows})
}

func (t *Toolkit) handleGetWorkflow(ctx context.Context, _ *mcp.CallToolRequest, in getWorkflowInput) (*mcp.CallToolResult, any, error) {
	if in.WorkflowID == "" {
		return result.ErrorText("workflow_id is required"), nil, nil
	}
	workflow, err := t.service.GetWorkflow(ctx, in.WorkflowID)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(workflow)
}

func (t *Toolkit) handleListSessions(ctx context.Context, _ *mcp.CallToolRequest, in listSessionsInput) (*mcp.CallToolResult, any, error) {
	sessions, err := t.service.ListSessions(ctx, in.Limit)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"sessions": sessions})
}

func (t *Toolkit) handleListAttempts(ctx context.Context, _ *mcp.CallToolRequest, in listAttemptsInput) (*mcp.CallToolResult, any, error) {
	attempts, err := t.service.ListAttempts(ctx, in.WorkflowName, in.Limit)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"attempts": attempts})
}

func (t *Toolkit) handleStartWorkflow(ctx context.Context, _ *mcp.CallToolRequest, in startWorkflowInput) (*mcp.CallToolResult, any, error) {
	if in.WorkflowID == "" {
		return result.ErrorText("workflow_id is required"), nil, nil
	}
	attempt, err := t.service.StartAttempt(ctx, in.WorkflowID, in.SessionTime, in.Params)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(attempt)
}

func (t *Toolkit) handleRetryAttempt(ctx context.Context, _ *mcp.CallToolRequest, in retryAttemptInput) (*mcp.CallToolResult, any, error) {
	if in.AttemptID == "" {
		return result.ErrorText("attempt_id is required"), nil, nil
	}
	attempt, err := t.service.RetryAttempt(ctx, in.AttemptID, in.RetryName, in.ResumeFrom)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(attempt)
}

func (t *Toolkit) handleKillAttempt(ctx context.Context, _ *mcp.CallToolRequest, in killAttemptInput) (*mcp.CallToolResult, any, error) {
	if in.AttemptID == "" {
		return result.ErrorText("attempt_id is required"), nil, nil
	}
	if err := t.service.KillAttempt(ctx, in.AttemptID); err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"attempt_id": in.AttemptID, "kill_requested": true})
}
