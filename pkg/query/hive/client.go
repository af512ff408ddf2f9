// Package hive provides a Hive implementation of the query executor over the
// Treasure Data v3 job API. Hive queries are asynchronous: a statement is
// submitted as a job, polled to completion, and its result fetched separately.
package hive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/client"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
)

const defaultPollInterval = 2 * time.Second

// Job statuses reported by the v3 job API.
const (
	StatusQueued  = "queued"
	StatusBooting = "booting"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
	StatusKilled  = "killed"
)

// Client runs Hive queries through the job API.
type Client struct {
	td           *client.Client
	pollInterval time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithPollInterval overrides the status polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New creates a Hive job client over the TD REST client.
func New(td *client.Client, opts ...Option) *Client {
	c := &Client{td: td, pollInterval: defaultPollInterval}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// JobStatus describes one job's state.
type JobStatus struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Database   string `json:"database"`
	Query      string `json:"query"`
	NumRecords int    `json:"num_records"`
	CreatedAt  string `json:"created_at"`
	StartAt    string `json:"start_at"`
	EndAt      string `json:"end_at"`

	// HiveResultSchema is a JSON-encoded list of [name, type] pairs.
	HiveResultSchema string `json:"hive_result_schema"`
}

// Done reports whether the job reached a terminal state.
func (s *JobStatus) Done() bool {
	switch s.Status {
	case StatusSuccess, StatusError, StatusKilled:
		return true
	}
	return false
}

type issueResponse struct {
	JobID    string `json:"job_id"`
	Database string `json:"database"`
}

// Submit issues a Hive job and returns its ID.
func (c *Client) Submit(ctx context.Context, sqlText, database string) (string, error) {
	if database == "" {
		return "", fmt.Errorf("database is required for hive jobs")
	}

	var resp issueResponse
	body := map[string]string{"query": sqlText}
	path := "/v3/job/issue/hive/" + url.PathEscape(database)
	if err := c.td.Post(ctx, path, body, &resp); err != nil {
		return "", fmt.Errorf("issuing hive job: %w", err)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("issuing hive job: empty job id in response")
	}
	return resp.JobID, nil
}

// Status fetches the current status of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	path := "/v3/job/show/" + url.PathEscape(jobID)
	if err := c.td.Get(ctx, path, nil, &status); err != nil {
		return nil, fmt.Errorf("fetching job status: %w", err)
	}
	return &status, nil
}

// Kill requests cancellation of a job.
func (c *Client) Kill(ctx context.Context, jobID string) error {
	path := "/v3/job/kill/" + url.PathEscape(jobID)
	if err := c.td.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("killing job %s: %w", jobID, err)
	}
	return nil
}

// Result fetches the result rows of a finished job. Rows arrive as
// newline-delimited JSON arrays; the column schema comes from the job status.
func (c *Client) Result(ctx context.Context, jobID string) (*query.Result, error) {
	status, err := c.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if status.Status != StatusSuccess {
		return nil, fmt.Errorf("job %s is %s, not finished successfully", jobID, status.Status)
	}

	columns, err := parseResultSchema(status.HiveResultSchema)
	if err != nil {
		return nil, err
	}

	path := "/v3/job/result/" + url.PathEscape(jobID)
	data, err := c.td.GetRaw(ctx, path, url.Values{"format": []string{"json"}})
	if err != nil {
		return nil, fmt.Errorf("fetching job result: %w", err)
	}

	rows, err := parseResultRows(data)
	if err != nil {
		return nil, err
	}

	return &query.Result{Columns: columns, Rows: rows, Count: len(rows)}, nil
}

// Execute submits sqlText as a job and polls until it completes, honoring ctx
// cancellation. Implements query.Executor.
func (c *Client) Execute(ctx context.Context, sqlText, database string) (*query.Result, error) {
	jobID, err := c.Submit(ctx, sqlText, database)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if status.Done() {
			if status.Status != StatusSuccess {
				return nil, fmt.Errorf("hive job %s finished with status %s", jobID, status.Status)
			}
			return c.Result(ctx, jobID)
		}

		select {
		case <-ctx.Done():
			// Best effort: the job keeps running server-side unless killed.
			_ = c.Kill(context.WithoutCancel(ctx), jobID)
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close implements query.Executor; the job client holds no resources.
func (c *Client) Close() error {
	return nil
}

// parseResultSchema decodes the hive_result_schema field, a JSON-encoded list
// of [name, type] pairs.
func parseResultSchema(raw string) ([]query.Column, error) {
	if raw == "" {
		return nil, nil
	}
	var pairs [][]string
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, fmt.Errorf("parsing result schema: %w", err)
	}
	columns := make([]query.Column, 0, len(pairs))
	for _, p := range pairs {
		col := query.Column{}
		if len(p) > 0 {
			col.Name = p[0]
		}
		if len(p) > 1 {
			col.Type = p[1]
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// parseResultRows decodes newline-delimited JSON arrays.
func parseResultRows(data []byte) ([][]any, error) {
	rows := [][]any{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	for dec.More() {
		var row []any
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("parsing result row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var _ query.Executor = (*Client)(nil)
