// Package middleware provides MCP protocol-level middleware: per-call context,
// structured logging, and audit capture.
package middleware

import (
	"context"
	"time"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
)

// contextKey is a private type for context keys.
type contextKey int

const callContextKey contextKey = iota

// CallContext carries per-tool-call metadata through the handler chain.
type CallContext struct {
	RequestID string
	StartTime time.Time

	ToolName    string
	ToolkitKind string
	ToolkitName string

	// Query attribution, published by SQL tool handlers so the audit
	// middleware can record what actually ran.
	Kind     query.StatementKind
	SQL      string
	Database string
	RowCount *int64
}

// NewCallContext creates a call context with the given request ID.
func NewCallContext(requestID string) *CallContext {
	return &CallContext{
		RequestID: requestID,
		StartTime: time.Now(),
	}
}

// SetQuery records the classified statement, its text, and the database it
// targets.
func (cc *CallContext) SetQuery(kind query.StatementKind, sql, database string) {
	cc.Kind = kind
	cc.SQL = sql
	cc.Database = database
}

// SetRowCount records how many rows the call produced or affected.
func (cc *CallContext) SetRowCount(n int64) {
	cc.RowCount = &n
}

// WithCallContext attaches cc to ctx.
func WithCallContext(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey, cc)
}

// GetCallContext returns the call context attached to ctx, or nil.
func GetCallContext(ctx context.Context) *CallContext {
	cc, _ := ctx.Value(callContextKey).(*CallContext)
	return cc
}
