// Package cdp provides a client for the Treasure Data CDP API, covering
// parent segments (audiences), segments, and activations.
package cdp

import (
	"context"
	"fmt"
	"net/url"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/client"
)

// Client calls the CDP REST API.
type Client struct {
	td *client.Client
}

// New creates a CDP client over a TD REST client already targeting the CDP
// host (see client.Site.CDPHost).
func New(td *client.Client) *Client {
	return &Client{td: td}
}

// ParentSegment is a CDP audience: the root population segments are carved
// from.
type ParentSegment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Population  int64  `json:"population"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Segment is a rule-defined subset of a parent segment.
type Segment struct {
	ID          string         `json:"id"`
	AudienceID  string         `json:"audienceId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Realtime    bool           `json:"realtime"`
	Population  int64          `json:"population"`
	Rule        map[string]any `json:"rule,omitempty"`
	CreatedAt   string         `json:"createdAt"`
}

// Activation is a syndication of a segment to an external destination.
type Activation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SegmentID    string `json:"segmentId"`
	AudienceID   string `json:"audienceId"`
	ConnectionID string `json:"connectionId"`
	ScheduleType string `json:"scheduleType,omitempty"`
	AllColumns   bool   `json:"allColumns"`
	ExecutedAt   string `json:"executedAt,omitempty"`
	WorkflowID   string `json:"workflowId,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// ListParentSegments returns all audiences.
func (c *Client) ListParentSegments(ctx context.Context) ([]ParentSegment, error) {
	var out []ParentSegment
	if err := c.td.Get(ctx, "/audiences", nil, &out); err != nil {
		return nil, fmt.Errorf("listing parent segments: %w", err)
	}
	return out, nil
}

// GetParentSegment returns one audience by ID.
func (c *Client) GetParentSegment(ctx context.Context, id string) (*ParentSegment, error) {
	var out ParentSegment
	if err := c.td.Get(ctx, "/audiences/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("fetching parent segment %s: %w", id, err)
	}
	return &out, nil
}

// ListSegments returns the segments of a parent segment.
func (c *Client) ListSegments(ctx context.Context, parentID string) ([]Segment, error) {
	path := "/audiences/" + url.PathEscape(parentID) + "/segments"
	var out []Segment
	if err := c.td.Get(ctx, path, nil, &out); err != nil {
		return nil, fmt.Errorf("listing segments of %s: %w", parentID, err)
	}
	return out, nil
}

// GetSegment returns one segment.
func (c *Client) GetSegment(ctx context.Context, parentID, segmentID string) (*Segment, error) {
	path := "/audiences/" + url.PathEscape(parentID) + "/segments/" + url.PathEscape(segmentID)
	var out Segment
	if err := c.td.Get(ctx, path, nil, &out); err != nil {
		return nil, fmt.Errorf("fetching segment %s: %w", segmentID, err)
	}
	return &out, nil
}

// CreateSegment creates a segment under a parent segment.
func (c *Client) CreateSegment(ctx context.Context, parentID string, seg Segment) (*Segment, error) {
	path := "/audiences/" + url.PathEscape(parentID) + "/segments"
	var out Segment
	if err := c.td.Post(ctx, path, seg, &out); err != nil {
		return nil, fmt.Errorf("creating segment %q: %w", seg.Name, err)
	}
	return &out, nil
}

// SegmentPreview holds the result of a segment rule preview query.
type SegmentPreview struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Total   int64    `json:"total"`
}

// RunSegmentQuery previews the profiles a segment rule would match without
// creating the segment.
func (c *Client) RunSegmentQuery(ctx context.Context, parentID string, rule map[string]any) (*SegmentPreview, error) {
	path := "/audiences/" + url.PathEscape(parentID) + "/segments/query"
	var out SegmentPreview
	if err := c.td.Post(ctx, path, map[string]any{"rule": rule}, &out); err != nil {
		return nil, fmt.Errorf("running segment query on %s: %w", parentID, err)
	}
	return &out, nil
}

// ListActivations returns the activations of a segment.
func (c *Client) ListActivations(ctx context.Context, parentID, segmentID string) ([]Activation, error) {
	path := "/audiences/" + url.PathEscape(parentID) +
		"/segments/" + url.PathEscape(segmentID) + "/syndications"
	var out []Activation
	if err := c.td.Get(ctx, path, nil, &out); err != nil {
		return nil, fmt.Errorf("listing activations of segment %s: %w", segmentID, err)
	}
	return out, nil
}
