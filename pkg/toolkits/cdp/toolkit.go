// Package cdp provides the customer data platform toolkit for browsing
// audiences, segments and activations.
package cdp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	cdpclient "github.com/treasure-data/td-mcp-server-sub000/pkg/cdp"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/toolkits/internal/result"
)

// Tool names.
const (
	toolListParentSegments = "list_parent_segments"
	toolGetParentSegment   = "get_parent_segment"
	toolListSegments       = "list_segments"
	toolGetSegment         = "get_segment"
	toolCreateSegment      = "create_segment"
	toolRunSegmentQuery    = "run_segment_query"
	toolListActivations    = "list_activations"
)

// Service is the CDP API surface the toolkit drives.
type Service interface {
	ListParentSegments(ctx context.Context) ([]cdpclient.ParentSegment, error)
	GetParentSegment(ctx context.Context, id string) (*cdpclient.ParentSegment, error)
	ListSegments(ctx context.Context, parentID string) ([]cdpclient.Segment, error)
	GetSegment(ctx context.Context, parentID, segmentID string) (*cdpclient.Segment, error)
	CreateSegment(ctx context.Context, parentID string, seg cdpclient.Segment) (*cdpclient.Segment, error)
	RunSegmentQuery(ctx context.Context, parentID string, rule map[string]any) (*cdpclient.SegmentPreview, error)
	ListActivations(ctx context.Context, parentID, segmentID string) ([]cdpclient.Activation, error)
}

// Toolkit implements the CDP toolkit. Segment creation is only registered
// when writes are enabled.
type Toolkit struct {
	name         string
	service      Service
	allowUpdates bool
}

// New creates a CDP toolkit.
func New(name string, service Service, allowUpdates bool) (*Toolkit, error) {
	if service == nil {
		return nil, fmt.Errorf("cdp service is required")
	}
	return &Toolkit{name: name, service: service, allowUpdates: allowUpdates}, nil
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "cdp"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// Tools returns the tool names provided by this toolkit.
func (t *Toolkit) Tools() []string {
	tools := []string{
		toolListParentSegments, toolGetParentSegment,
		toolListSegments, toolGetSegment, toolRunSegmentQuery,
		toolListActivations,
	}
	if t.allowUpdates {
		tools = append(tools, toolCreateSegment)
	}
	return tools
}

// Close is a no-op; the toolkit shares the platform HTTP client.
func (*Toolkit) Close() error {
	return nil
}

type getParentSegmentInput struct {
	ParentSegmentID string `json:"parent_segment_id"`
}

type listSegmentsInput struct {
	ParentSegmentID string `json:"parent_segment_id"`
}

type getSegmentInput struct {
	ParentSegmentID string `json:"parent_segment_id"`
	SegmentID       string `json:"segment_id"`
}

type createSegmentInput struct {
	ParentSegmentID string         `json:"parent_segment_id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Rule            map[string]any `json:"rule"`
}

type runSegmentQueryInput struct {
	ParentSegmentID string         `json:"parent_segment_id"`
	Rule            map[string]any `json:"rule"`
}

type listActivationsInput struct {
	ParentSegmentID string `json:"parent_segment_id"`
	SegmentID       string `json:"segment_id"`
}

// RegisterTools registers all tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListParentSegments,
		Description: "List parent segments (audiences).",
	}, t.handleListParentSegments)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetParentSegment,
		Description: "Get a parent segment by ID.",
	}, t.handleGetParentSegment)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListSegments,
		Description: "List segments under a parent segment.",
	}, t.handleListSegments)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetSegment,
		Description: "Get a segment by ID, including its rule.",
	}, t.handleGetSegment)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolRunSegmentQuery,
		Description: "Preview the profiles a segment rule would match without creating the segment.",
	}, t.handleRunSegmentQuery)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListActivations,
		Description: "List activations (syndications) of a segment.",
	}, t.handleListActivations)

	if !t.allowUpdates {
		return
	}

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolCreateSegment,
		Description: "Create a segment under a parent segment. Requires enable_updates to be set.",
	}, t.handleCreateSegment)
}

func (t *Toolkit) handleListParentSegments(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	parents, err := t.service.ListParentSegments(ctx)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"parent_segments": parents})
}

func (t *Toolkit) handleGetParentSegment(ctx context.Context, _ *mcp.CallToolRequest, in getParentSegmentInput) (*mcp.CallToolResult, any, error) {
	if in.ParentSegmentID == "" {
		return result.ErrorText("parent_segment_id is required"), nil, nil
	}
	parent, err := t.service.GetParentSegment(ctx, in.ParentSegmentID)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(parent)
}

func (t *Toolkit) handleListSegments(ctx context.Context, _ *mcp.CallToolRequest, in listSegmentsInput) (*mcp.CallToolResult, any, error) {
	if in.ParentSegmentID == "" {
		return result.ErrorText("parent_segment_id is required"), nil, nil
	}
	segments, err := t.service.ListSegments(ctx, in.ParentSegmentID)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"segments": segments})
}

func (t *Toolkit) handleGetSegment(ctx context.Context, _ *mcp.CallToolRequest, in getSegmentInput) (*mcp.CallToolResult, any, error) {
	if in.ParentSegmentID == "" || in.SegmentID == "" {
		return result.ErrorText("parent_segment_id and segment_id are required"), nil, nil
	}
	segment, err := t.service.GetSegment(ctx, in.ParentSegmentID, in.SegmentID)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(segment)
}

func (t *Toolkit) handleCreateSegment(ctx context.Context, _ *mcp.CallToolRequest, in createSegmentInput) (*mcp.CallToolResult, any, error) {
	if in.ParentSegmentID == "" || in.Name == "" {
		return result.ErrorText("parent_segment_id and name are required"), nil, nil
	}
	segment, err := t.service.CreateSegment(ctx, in.ParentSegmentID, cdpclient.Segment{
		Name:        in.Name,
		Description: in.Description,
		Rule:        in.Rule,
	})
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(segment)
}

func (t *Toolkit) handleRunSegmentQuery(ctx context.Context, _ *mcp.CallToolRequest, in runSegmentQueryInput) (*mcp.CallToolResult, any, error) {
	if in.ParentSegmentID == "" {
		return result.ErrorText("parent_segment_id is required"), nil, nil
	}
	preview, err := t.service.RunSegmentQuery(ctx, in.ParentSegmentID, in.Rule)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(preview)
}

func (t *Toolkit) handleListActivations(ctx context.Context, _ *mcp.CallToolRequest, in listActivationsInput) (*mcp.CallToolResult, any, error) {
	if in.ParentSegmentID == "" || in.SegmentID == "" {
		return result.ErrorText("parent_segment_id and segment_id are required"), nil, nil
	}
	activations, err := t.service.ListActivations(ctx, in.ParentSegmentID, in.SegmentID)
	if err != nil {
		return result.Error(err), nil, nil
	}
	return result.JSON(map[string]any{"activations": activations})
}
