// Package result builds MCP tool results in a consistent shape across
// toolkits.
package result

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// JSON marshals v as indented JSON into a text result.
func JSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Error(fmt.Errorf("encoding result: %w", err)), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// Text wraps a plain message in a text result.
func Text(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}, nil, nil
}

// Error wraps err in an error result. The Go error stays nil so the call
// reaches the client as a tool failure rather than a protocol failure.
func Error(err error) *mcp.CallToolResult {
	return ErrorText(err.Error())
}

// ErrorText wraps a message in an error result.
func ErrorText(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
