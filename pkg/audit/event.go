package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
)

// NewEvent creates an audit event for one tool invocation.
func NewEvent(toolName string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		ToolName:  toolName,
	}
}

// WithQuery records the validated SQL and its classified kind.
func (e *Event) WithQuery(kind query.StatementKind, sql, database string) *Event {
	e.Kind = string(kind)
	e.SQL = sql
	e.Database = database
	return e
}

// WithResult records the call outcome.
func (e *Event) WithResult(success bool, errorMsg string, durationMS int64) *Event {
	e.Success = success
	e.ErrorMessage = errorMsg
	e.DurationMS = durationMS
	return e
}

// WithRowCount records how many rows the call produced or affected.
func (e *Event) WithRowCount(n int64) *Event {
	e.RowCount = &n
	return e
}

// WithToolkit records which toolkit served the call.
func (e *Event) WithToolkit(kind, name string) *Event {
	e.ToolkitKind = kind
	e.ToolkitName = name
	return e
}

// WithRequestID attaches the per-call request ID.
func (e *Event) WithRequestID(requestID string) *Event {
	e.RequestID = requestID
	return e
}

// WithParameters attaches tool call parameters, sanitized.
func (e *Event) WithParameters(params map[string]any) *Event {
	e.Parameters = SanitizeParameters(params)
	return e
}

// sensitiveKeys are parameter names whose values are never logged.
var sensitiveKeys = map[string]bool{
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"credentials":   true,
}

// SanitizeParameters replaces sensitive parameter values with a redaction
// marker.
func SanitizeParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		if sensitiveKeys[k] {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}
