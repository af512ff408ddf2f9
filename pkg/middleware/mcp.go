package middleware

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const methodToolsCall = "tools/call"

// ToolResolver maps a tool name to the toolkit providing it. The registry
// implements this.
type ToolResolver interface {
	GetToolkitForTool(toolName string) (kind, name string, found bool)
}

// MCPToolCallMiddleware creates middleware that attaches a CallContext with a
// fresh request ID and toolkit attribution to every tools/call request.
func MCPToolCallMiddleware(resolver ToolResolver) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			toolName, err := extractToolName(req)
			if err != nil {
				return createErrorResult(fmt.Sprintf("invalid request: %v", err)), nil
			}

			cc := NewCallContext(uuid.NewString())
			cc.ToolName = toolName
			if resolver != nil {
				if kind, name, ok := resolver.GetToolkitForTool(toolName); ok {
					cc.ToolkitKind = kind
					cc.ToolkitName = name
				}
			}
			ctx = WithCallContext(ctx, cc)

			return next(ctx, method, req)
		}
	}
}

// extractToolName pulls the tool name out of a tools/call request.
func extractToolName(req mcp.Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("missing request")
	}
	params := req.GetParams()
	if params == nil {
		return "", fmt.Errorf("missing params")
	}

	callParams, ok := params.(*mcp.CallToolParamsRaw)
	if !ok || callParams == nil {
		return "", fmt.Errorf("unexpected params type: %T", params)
	}
	if callParams.Name == "" {
		return "", fmt.Errorf("missing tool name")
	}
	return callParams.Name, nil
}

// extractArguments decodes the raw tool arguments into a map.
func extractArguments(req mcp.Request) map[string]any {
	if req == nil {
		return nil
	}
	callParams, ok := req.GetParams().(*mcp.CallToolParamsRaw)
	if !ok || callParams == nil || len(callParams.Arguments) == 0 {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal(callParams.Arguments, &args); err != nil {
		return nil
	}
	return args
}

func createErrorResult(errMsg string) mcp.Result {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: errMsg},
		},
	}
}
