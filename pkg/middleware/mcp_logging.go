package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPLoggingMiddleware creates middleware that writes a structured log record
// for every tools/call request.
func MCPLoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodToolsCall {
				return next(ctx, method, req)
			}

			start := time.Now()
			result, err := next(ctx, method, req)
			duration := time.Since(start)

			attrs := []any{"duration_ms", duration.Milliseconds()}
			if cc := GetCallContext(ctx); cc != nil {
				attrs = append(attrs, "tool", cc.ToolName, "request_id", cc.RequestID)
			}

			switch {
			case err != nil:
				logger.ErrorContext(ctx, "tool call failed", append(attrs, "error", err)...)
			case isErrorResult(result):
				logger.WarnContext(ctx, "tool call rejected", attrs...)
			default:
				logger.DebugContext(ctx, "tool call", attrs...)
			}

			return result, err
		}
	}
}

func isErrorResult(result mcp.Result) bool {
	callResult, ok := result.(*mcp.CallToolResult)
	return ok && callResult != nil && callResult.IsError
}
