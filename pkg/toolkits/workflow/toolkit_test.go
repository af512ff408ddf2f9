package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wf "github.com/treasure-data/td-mcp-server-sub000/pkg/workflow"
)

type fakeService struct {
	workflows []wf.Workflow
	sessions  []wf.Session
	attempts  []wf.Attempt
	attempt   *wf.Attempt
	err       error

	lastWorkflowName string
	lastWorkflowID   string
	lastAttemptID    string
	lastResumeFrom   string
	killed           bool
}

func (f *fakeService) ListWorkflows(context.Context, int) ([]wf.Workflow, error) {
	return f.workflows, f.err
}

func (f *fakeService) GetWorkflow(_ context.Context, id string) (*wf.Workflow, error) {
	f.lastWorkflowID = id
	if f.err != nil {
		return nil, f.err
	}
	if len(f.workflows) > 0 {
		return &f.workflows[0], nil
	}
	return nil, nil
}

func (f *fakeService) ListSessions(context.Context, int) ([]wf.Session, error) {
	return f.sessions, f.err
}

func (f *fakeService) ListAttempts(_ context.Context, workflowName string, _ int) ([]wf.Attempt, error) {
	f.lastWorkflowName = workflowName
	return f.attempts, f.err
}

func (f *fakeService) StartAttempt(_ context.Context, workflowID, _ string, _ map[string]any) (*wf.Attempt, error) {
	f.lastWorkflowID = workflowID
	return f.attempt, f.err
}

func (f *fakeService) RetryAttempt(_ context.Context, attemptID, _, resumeFrom string) (*wf.Attempt, error) {
	f.lastAttemptID = attemptID
	f.lastResumeFrom = resumeFrom
	return f.attempt, f.err
}

func (f *fakeService) KillAttempt(_ context.Context, attemptID string) error {
	f.lastAttemptID = attemptID
	f.killed = true
	return f.err
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToolsReadOnly(t *testing.T) {
	tk, err := New("default", &fakeService{}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{toolListWorkflows, toolGetWorkflow, toolListSessions, toolListAttempts}, tk.Tools())
}

func TestToolsWithUpdates(t *testing.T) {
	tk, err := New("default", &fakeService{}, true)
	require.NoError(t, err)

	assert.Contains(t, tk.Tools(), toolStartWorkflow)
	assert.Contains(t, tk.Tools(), toolRetryAttempt)
	assert.Contains(t, tk.Tools(), toolKillAttempt)
}

func TestHandleListWorkflows(t *testing.T) {
	svc := &fakeService{workflows: []wf.Workflow{{ID: "1", Name: "daily_ingest"}}}
	tk, err := New("default", svc, false)
	require.NoError(t, err)

	res, _, err := tk.handleListWorkflows(context.Background(), nil, listWorkflowsInput{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "daily_ingest")
}

func TestHandleGetWorkflow(t *testing.T) {
	svc := &fakeService{workflows: []wf.Workflow{{ID: "42", Name: "daily_ingest", Timezone: "UTC"}}}
	tk, err := New("default", svc, false)
	require.NoError(t, err)

	res, _, err := tk.handleGetWorkflow(context.Background(), nil, getWorkflowInput{WorkflowID: "42"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "42", svc.lastWorkflowID)
	assert.Contains(t, resultText(t, res), "daily_ingest")
}

func TestHandleGetWorkflowRequiresID(t *testing.T) {
	tk, err := New("default", &fakeService{}, false)
	require.NoError(t, err)

	res, _, err := tk.handleGetWorkflow(context.Background(), nil, getWorkflowInput{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "workflow_id is required")
}

func TestHandleListAttemptsFilter(t *testing.T) {
	svc := &fakeService{attempts: []wf.Attempt{{ID: "9", Status: "running"}}}
	tk, err := New("default", svc, false)
	require.NoError(t, err)

	res, _, err := tk.handleListAttempts(context.Background(), nil, listAttemptsInput{WorkflowName: "daily_ingest"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "daily_ingest", svc.lastWorkflowName)
	assert.Contains(t, resultText(t, res), "running")
}

func TestHandleStartWorkflow(t *testing.T) {
	svc := &fakeService{attempt: &wf.Attempt{ID: "100", SessionID: "55"}}
	tk, err := New("default", svc, true)
	require.NoError(t, err)

	res, _, err := tk.handleStartWorkflow(context.Background(), nil, startWorkflowInput{WorkflowID: "1"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "1", svc.lastWorkflowID)
	assert.Contains(t, resultText(t, res), `"id": "100"`)
}

func TestHandleStartWorkflowRequiresID(t *testing.T) {
	tk, err := New("default", &fakeService{}, true)
	require.NoError(t, err)

	res, _, err := tk.handleStartWorkflow(context.Background(), nil, startWorkflowInput{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "workflow_id is required")
}

func TestHandleRetryAttempt(t *testing.T) {
	svc := &fakeService{attempt: &wf.Attempt{ID: "101", Index: 2}}
	tk, err := New("default", svc, true)
	require.NoError(t, err)

	res, _, err := tk.handleRetryAttempt(context.Background(), nil, retryAttemptInput{AttemptID: "100", ResumeFrom: "+load"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "100", svc.lastAttemptID)
	assert.Equal(t, "+load", svc.lastResumeFrom)
}

func TestHandleKillAttempt(t *testing.T) {
	svc := &fakeService{}
	tk, err := New("default", svc, true)
	require.NoError(t, err)

	res, _, err := tk.handleKillAttempt(context.Background(), nil, killAttemptInput{AttemptID: "100"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.True(t, svc.killed)
}

func TestHandleServiceError(t *testing.T) {
	svc := &fakeService{err: errors.New("td api GET /api/workflows: status 500")}
	tk, err := New("default", svc, false)
	require.NoError(t, err)

	res, _, err := tk.handleListWorkflows(context.Background(), nil, listWorkflowsInput{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "status 500")
}
