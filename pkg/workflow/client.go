// Package workflow provides a client for the Treasure Data workflow API
// (Digdag), covering workflow discovery and attempt lifecycle management.
package workflow

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/client"
)

const defaultPageSize = 100

// Client calls the workflow REST API.
type Client struct {
	td *client.Client
}

// New creates a workflow client over a TD REST client already targeting the
// workflow host (see client.Site.WorkflowHost).
func New(td *client.Client) *Client {
	return &Client{td: td}
}

// Project identifies the project a workflow belongs to.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Workflow describes a registered workflow.
type Workflow struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Project  Project `json:"project"`
	Revision string  `json:"revision"`
	Timezone string  `json:"timezone"`
}

// Session is one scheduled or manual execution slot of a workflow.
type Session struct {
	ID          string   `json:"id"`
	Project     Project  `json:"project"`
	Workflow    Workflow `json:"workflow"`
	SessionUUID string   `json:"sessionUuid"`
	SessionTime string   `json:"sessionTime"`
	LastAttempt *Attempt `json:"lastAttempt,omitempty"`
}

// NamedRef is a compact id/name reference used inside attempt payloads.
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attempt is one execution of a workflow session.
type Attempt struct {
	ID               string         `json:"id"`
	Index            int            `json:"index"`
	Status           string         `json:"status,omitempty"`
	Done             bool           `json:"done"`
	Success          bool           `json:"success"`
	CancelRequested  bool           `json:"cancelRequested"`
	Workflow         NamedRef       `json:"workflow"`
	SessionID        string         `json:"sessionId"`
	SessionTime      string         `json:"sessionTime"`
	RetryAttemptName string         `json:"retryAttemptName,omitempty"`
	Params           map[string]any `json:"params,omitempty"`
	CreatedAt        string         `json:"createdAt"`
	FinishedAt       string         `json:"finishedAt,omitempty"`
}

// ListWorkflows returns registered workflows, up to limit (0 uses the default
// page size).
func (c *Client) ListWorkflows(ctx context.Context, limit int) ([]Workflow, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var resp struct {
		Workflows []Workflow `json:"workflows"`
	}
	params := url.Values{"count": []string{strconv.Itoa(limit)}}
	if err := c.td.Get(ctx, "/api/workflows", params, &resp); err != nil {
		return nil, fmt.Errorf("listing workflows: %w", err)
	}
	return resp.Workflows, nil
}

// GetWorkflow returns one workflow by ID.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var wf Workflow
	if err := c.td.Get(ctx, "/api/workflows/"+url.PathEscape(id), nil, &wf); err != nil {
		return nil, fmt.Errorf("fetching workflow %s: %w", id, err)
	}
	return &wf, nil
}

// ListSessions returns recent workflow sessions.
func (c *Client) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var resp struct {
		Sessions []Session `json:"sessions"`
	}
	params := url.Values{"count": []string{strconv.Itoa(limit)}}
	if err := c.td.Get(ctx, "/api/sessions", params, &resp); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return resp.Sessions, nil
}

// ListAttempts returns recent attempts, optionally filtered by workflow name.
func (c *Client) ListAttempts(ctx context.Context, workflowName string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	params := url.Values{"count": []string{strconv.Itoa(limit)}}
	if workflowName != "" {
		params.Set("workflow", workflowName)
	}
	var resp struct {
		Attempts []Attempt `json:"attempts"`
	}
	if err := c.td.Get(ctx, "/api/attempts", params, &resp); err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	return resp.Attempts, nil
}

// GetAttempt returns one attempt by ID.
func (c *Client) GetAttempt(ctx context.Context, id string) (*Attempt, error) {
	var attempt Attempt
	if err := c.td.Get(ctx, "/api/attempts/"+url.PathEscape(id), nil, &attempt); err != nil {
		return nil, fmt.Errorf("fetching attempt %s: %w", id, err)
	}
	return &attempt, nil
}

// StartAttempt starts a new attempt of a workflow.
func (c *Client) StartAttempt(ctx context.Context, workflowID, sessionTime string, params map[string]any) (*Attempt, error) {
	if params == nil {
		params = map[string]any{}
	}
	body := map[string]any{
		"workflowId":  workflowID,
		"sessionTime": sessionTime,
		"params":      params,
	}
	var attempt Attempt
	if err := c.td.Put(ctx, "/api/attempts", body, &attempt); err != nil {
		return nil, fmt.Errorf("starting attempt for workflow %s: %w", workflowID, err)
	}
	return &attempt, nil
}

// RetryAttempt retries a finished attempt under a new retry name, resuming
// from the failed task when resumeFrom is set.
func (c *Client) RetryAttempt(ctx context.Context, attemptID, retryName, resumeFrom string) (*Attempt, error) {
	prev, err := c.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"workflowId":       prev.Workflow.ID,
		"sessionTime":      prev.SessionTime,
		"retryAttemptName": retryName,
		"params":           prev.Params,
	}
	if resumeFrom != "" {
		body["resume"] = map[string]any{"mode": "from", "attemptId": attemptID, "from": resumeFrom}
	}
	var attempt Attempt
	if err := c.td.Put(ctx, "/api/attempts", body, &attempt); err != nil {
		return nil, fmt.Errorf("retrying attempt %s: %w", attemptID, err)
	}
	return &attempt, nil
}

// KillAttempt requests cancellation of a running attempt.
func (c *Client) KillAttempt(ctx context.Context, attemptID string) error {
	path := "/api/attempts/" + url.PathEscape(attemptID) + "/kill"
	if err := c.td.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("killing attempt %s: %w", attemptID, err)
	}
	return nil
}
