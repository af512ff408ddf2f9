package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/client"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	td, err := client.New(client.Config{APIKey: "1/key", BaseURL: srv.URL})
	require.NoError(t, err)
	return New(td)
}

func TestListWorkflows(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/workflows", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{"workflows":[
			{"id":"1","name":"daily_ingest","project":{"id":"10","name":"analytics"},"timezone":"UTC"},
			{"id":"2","name":"hourly_rollup","project":{"id":"10","name":"analytics"},"timezone":"UTC"}
		]}`))
	}))

	wfs, err := c.ListWorkflows(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, wfs, 2)
	assert.Equal(t, "daily_ingest", wfs[0].Name)
	assert.Equal(t, "analytics", wfs[0].Project.Name)
}

func TestListWorkflowsDefaultCount(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{"workflows":[]}`))
	}))

	wfs, err := c.ListWorkflows(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, wfs)
}

func TestListAttemptsFiltersByWorkflow(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/attempts", r.URL.Path)
		assert.Equal(t, "daily_ingest", r.URL.Query().Get("workflow"))
		_, _ = w.Write([]byte(`{"attempts":[
			{"id":"501","index":1,"done":true,"success":true,"workflow":{"id":"1","name":"daily_ingest"}}
		]}`))
	}))

	attempts, err := c.ListAttempts(context.Background(), "daily_ingest", 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Success)
	assert.Equal(t, "daily_ingest", attempts[0].Workflow.Name)
}

func TestStartAttempt(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/attempts", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1", body["workflowId"])
		assert.Equal(t, map[string]any{"target_day": "2026-08-31"}, body["params"])

		_, _ = w.Write([]byte(`{"id":"900","index":1,"done":false}`))
	}))

	attempt, err := c.StartAttempt(context.Background(), "1", "2026-08-31T00:00:00+00:00",
		map[string]any{"target_day": "2026-08-31"})
	require.NoError(t, err)
	assert.Equal(t, "900", attempt.ID)
	assert.False(t, attempt.Done)
}

func TestRetryAttempt(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/attempts/501":
			_, _ = w.Write([]byte(`{"id":"501","done":true,"success":false,` +
				`"workflow":{"id":"1","name":"daily_ingest"},"sessionTime":"2026-08-30T00:00:00+00:00"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/attempts":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "1", body["workflowId"])
			assert.Equal(t, "retry-1", body["retryAttemptName"])
			_, _ = w.Write([]byte(`{"id":"502","index":2}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	attempt, err := c.RetryAttempt(context.Background(), "501", "retry-1", "")
	require.NoError(t, err)
	assert.Equal(t, "502", attempt.ID)
}

func TestKillAttempt(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/attempts/900/kill", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))

	require.NoError(t, c.KillAttempt(context.Background(), "900"))
}
