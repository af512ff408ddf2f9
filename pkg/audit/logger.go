// Package audit provides audit logging for tool calls: every validation and
// execution outcome is recorded with timing and row counts.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger records audit events. Callers treat logging as fire-and-forget; a
// Logger must never panic.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, event Event) error

	// Query retrieves audit events matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Close releases resources.
	Close() error
}

// Event represents one auditable tool call.
type Event struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	DurationMS   int64          `json:"duration_ms"`
	RequestID    string         `json:"request_id,omitempty"`
	ToolName     string         `json:"tool_name"`
	ToolkitKind  string         `json:"toolkit_kind,omitempty"`
	ToolkitName  string         `json:"toolkit_name,omitempty"`
	Kind         string         `json:"kind,omitempty"`
	SQL          string         `json:"sql,omitempty"`
	Database     string         `json:"database,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	RowCount     *int64         `json:"row_count,omitempty"`
}

// QueryFilter defines criteria for querying audit events.
type QueryFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	ToolName  string
	Kind      string
	Success   *bool
	Limit     int
	Offset    int
}

// Config configures audit logging.
type Config struct {
	Enabled       bool   `yaml:"enabled"`
	DSN           string `yaml:"dsn"`
	RetentionDays int    `yaml:"retention_days"`
}

// SlogLogger writes audit events as structured log records. It is the default
// sink when no database is configured.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a logger writing to l, or slog.Default when l is nil.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{logger: l}
}

// Log writes the event as one structured record.
func (s *SlogLogger) Log(ctx context.Context, event Event) error {
	attrs := []any{
		"audit_id", event.ID,
		"tool", event.ToolName,
		"success", event.Success,
		"duration_ms", event.DurationMS,
	}
	if event.Kind != "" {
		attrs = append(attrs, "kind", event.Kind)
	}
	if event.Database != "" {
		attrs = append(attrs, "database", event.Database)
	}
	if event.RowCount != nil {
		attrs = append(attrs, "row_count", *event.RowCount)
	}
	if event.ErrorMessage != "" {
		attrs = append(attrs, "error", event.ErrorMessage)
		s.logger.ErrorContext(ctx, "tool call", attrs...)
		return nil
	}
	s.logger.InfoContext(ctx, "tool call", attrs...)
	return nil
}

// Query is unsupported for the slog sink: records go to the log stream only.
func (s *SlogLogger) Query(_ context.Context, _ QueryFilter) ([]Event, error) {
	return nil, nil
}

// Close implements Logger.
func (s *SlogLogger) Close() error {
	return nil
}

// NopLogger discards all events. Used when auditing is disabled.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(context.Context, Event) error { return nil }

// Query implements Logger.
func (NopLogger) Query(context.Context, QueryFilter) ([]Event, error) { return nil, nil }

// Close implements Logger.
func (NopLogger) Close() error { return nil }
