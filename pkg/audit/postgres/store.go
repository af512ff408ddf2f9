// Package postgres provides PostgreSQL storage for audit events.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	// Registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/audit"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/database/migrate"
)

const (
	defaultRetentionDays = 90
	defaultQueryLimit    = 100
	maxQueryLimit        = 10000

	cleanupInterval = time.Hour
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// auditColumns lists columns returned by audit SELECT queries.
var auditColumns = []string{
	"id", "timestamp", "duration_ms", "request_id", "tool_name",
	"toolkit_kind", "toolkit_name", "kind", "sql_text", "database_name",
	"parameters", "success", "error_message", "row_count",
}

// Store implements audit.Logger using PostgreSQL.
type Store struct {
	db            *sql.DB
	retentionDays int
	cancel        context.CancelFunc
	done          chan struct{}
}

// Config configures the PostgreSQL audit store.
type Config struct {
	RetentionDays int
}

// Open connects to dsn, runs migrations, and starts the retention sweeper.
func Open(dsn string, cfg Config) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if err := migrate.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating audit database: %w", err)
	}
	return New(db, cfg), nil
}

// New creates a store over an existing database handle.
func New(db *sql.DB, cfg Config) *Store {
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = defaultRetentionDays
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:            db,
		retentionDays: cfg.RetentionDays,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	go s.sweep(ctx)
	return s
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event audit.Event) error {
	params, err := json.Marshal(event.Parameters)
	if err != nil {
		params = []byte("{}")
	}

	q, args, err := psq.Insert("audit_events").
		Columns(auditColumns...).
		Values(
			event.ID,
			event.Timestamp,
			event.DurationMS,
			event.RequestID,
			event.ToolName,
			event.ToolkitKind,
			event.ToolkitName,
			event.Kind,
			event.SQL,
			event.Database,
			params,
			event.Success,
			event.ErrorMessage,
			event.RowCount,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building audit insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// Query retrieves audit events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	qb := psq.Select(auditColumns...).
		From("audit_events").
		OrderBy("timestamp DESC").
		Limit(uint64(limit))
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}
	qb = applyFilter(qb, filter)

	q, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building audit query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []audit.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}
	return events, nil
}

func applyFilter(qb sq.SelectBuilder, filter audit.QueryFilter) sq.SelectBuilder {
	if filter.StartTime != nil {
		qb = qb.Where(sq.GtOrEq{"timestamp": *filter.StartTime})
	}
	if filter.EndTime != nil {
		qb = qb.Where(sq.LtOrEq{"timestamp": *filter.EndTime})
	}
	if filter.ToolName != "" {
		qb = qb.Where(sq.Eq{"tool_name": filter.ToolName})
	}
	if filter.Kind != "" {
		qb = qb.Where(sq.Eq{"kind": filter.Kind})
	}
	if filter.Success != nil {
		qb = qb.Where(sq.Eq{"success": *filter.Success})
	}
	return qb
}

func scanEvent(rows *sql.Rows) (audit.Event, error) {
	var (
		event    audit.Event
		params   []byte
		rowCount sql.NullInt64
	)
	err := rows.Scan(
		&event.ID,
		&event.Timestamp,
		&event.DurationMS,
		&event.RequestID,
		&event.ToolName,
		&event.ToolkitKind,
		&event.ToolkitName,
		&event.Kind,
		&event.SQL,
		&event.Database,
		&params,
		&event.Success,
		&event.ErrorMessage,
		&rowCount,
	)
	if err != nil {
		return audit.Event{}, fmt.Errorf("scanning audit event: %w", err)
	}
	if len(params) > 0 {
		_ = json.Unmarshal(params, &event.Parameters)
	}
	if rowCount.Valid {
		event.RowCount = &rowCount.Int64
	}
	return event, nil
}

// sweep deletes events older than the retention window, hourly.
func (s *Store) sweep(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
			q, args, err := psq.Delete("audit_events").
				Where(sq.Lt{"timestamp": cutoff}).
				ToSql()
			if err != nil {
				continue
			}
			_, _ = s.db.ExecContext(ctx, q, args...)
		}
	}
}

// Close stops the sweeper and closes the database handle.
func (s *Store) Close() error {
	s.cancel()
	<-s.done
	return s.db.Close()
}

var _ audit.Logger = (*Store)(nil)
