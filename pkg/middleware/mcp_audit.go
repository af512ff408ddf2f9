package middleware

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/audit"
)

// AuditLogger is the subset of audit.Logger the middleware needs.
type AuditLogger interface {
	Log(ctx context.Context, event audit.Event) error
}

// MCPAuditMiddleware creates middleware that records every tools/call as an
// audit event. Logging happens asynchronously so a slow sink never delays the
// response; failures to log are dropped (fire-and-forget).
func MCPAuditMiddleware(logger AuditLogger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			startTime := time.Now()
			result, err := next(ctx, method, req)
			duration := time.Since(startTime)

			cc := GetCallContext(ctx)
			if cc == nil {
				// Tool-call middleware did not run; nothing to attribute.
				return result, err
			}

			event := buildAuditEvent(cc, req, result, err, startTime, duration)
			go func() {
				_ = logger.Log(context.Background(), event)
			}()

			return result, err
		}
	}
}

func buildAuditEvent(
	cc *CallContext,
	req mcp.Request,
	result mcp.Result,
	err error,
	startTime time.Time,
	duration time.Duration,
) audit.Event {
	success := err == nil
	errorMsg := ""
	if err != nil {
		errorMsg = err.Error()
	} else if callResult, ok := result.(*mcp.CallToolResult); ok && callResult != nil && callResult.IsError {
		success = false
		errorMsg = extractErrorMessage(callResult)
	}

	event := audit.NewEvent(cc.ToolName).
		WithRequestID(cc.RequestID).
		WithToolkit(cc.ToolkitKind, cc.ToolkitName).
		WithParameters(extractArguments(req)).
		WithResult(success, errorMsg, duration.Milliseconds())
	if cc.Kind != "" || cc.SQL != "" {
		event.WithQuery(cc.Kind, cc.SQL, cc.Database)
	}
	if cc.RowCount != nil {
		event.WithRowCount(*cc.RowCount)
	}
	event.Timestamp = startTime
	return *event
}

// extractErrorMessage pulls the first text content out of an error result.
func extractErrorMessage(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	if textContent, ok := result.Content[0].(*mcp.TextContent); ok {
		return textContent.Text
	}
	return ""
}
