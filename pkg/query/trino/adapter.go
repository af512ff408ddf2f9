// Package trino provides a Trino implementation of the query executor, used
// for Treasure Data's Trino (Presto) query engine.
package trino

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	sq "github.com/Masterminds/squirrel"

	// Registers the "trino" database/sql driver.
	_ "github.com/trinodb/trino-go-client/trino"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
)

const (
	defaultPort   = 443
	defaultSource = "td-mcp-server"
)

// Config holds Trino adapter configuration. For Treasure Data the user is the
// API key and the catalog is "td".
type Config struct {
	Host    string
	Port    int
	User    string
	Catalog string
	Schema  string
	SSL     bool
	Source  string
}

// Adapter implements query.Executor and query.SchemaReader over a Trino
// connection.
type Adapter struct {
	cfg Config
	db  *sql.DB
}

// New creates an adapter and opens the underlying connection pool.
func New(cfg Config) (*Adapter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("trino host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("trino user is required")
	}
	cfg = applyDefaults(cfg)

	db, err := sql.Open("trino", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening trino connection: %w", err)
	}
	return &Adapter{cfg: cfg, db: db}, nil
}

// NewWithDB creates an adapter over an existing database handle. Tests use
// this with sqlmock.
func NewWithDB(db *sql.DB, cfg Config) *Adapter {
	return &Adapter{cfg: applyDefaults(cfg), db: db}
}

func applyDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Source == "" {
		cfg.Source = defaultSource
	}
	return cfg
}

// dsn builds the trino-go-client connection string.
func dsn(cfg Config) string {
	scheme := "http"
	if cfg.SSL {
		scheme = "https"
	}
	params := url.Values{}
	if cfg.Catalog != "" {
		params.Set("catalog", cfg.Catalog)
	}
	if cfg.Schema != "" {
		params.Set("schema", cfg.Schema)
	}
	params.Set("source", cfg.Source)

	u := url.URL{
		Scheme:   scheme,
		User:     url.User(cfg.User),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: params.Encode(),
	}
	return u.String()
}

// Execute runs sql and returns its results. Write statements report affected
// rows instead of a row set. The database argument scopes metadata lookups;
// statements themselves run as written.
func (a *Adapter) Execute(ctx context.Context, sqlText, database string) (*query.Result, error) {
	if query.IsWriteOperation(query.Classify(sqlText)) {
		return a.exec(ctx, sqlText)
	}
	return a.query(ctx, sqlText)
}

func (a *Adapter) exec(ctx context.Context, sqlText string) (*query.Result, error) {
	res, err := a.db.ExecContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Some statements (DDL) report no row count.
		affected = 0
	}
	return &query.Result{AffectedRows: affected}, nil
}

func (a *Adapter) query(ctx context.Context, sqlText string) (*query.Result, error) {
	rows, err := a.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRows(rows)
}

// collectRows drains rows into a query.Result.
func collectRows(rows *sql.Rows) (*query.Result, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("reading column metadata: %w", err)
	}

	columns := make([]query.Column, len(types))
	for i, ct := range types {
		columns[i] = query.Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	result := &query.Result{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	result.Count = len(result.Rows)
	return result, nil
}

// ListDatabases returns the schemas visible in the catalog.
func (a *Adapter) ListDatabases(ctx context.Context) ([]string, error) {
	q, args, err := sq.Select("schema_name").
		From("information_schema.schemata").
		Where(sq.NotEq{"schema_name": "information_schema"}).
		OrderBy("schema_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building schema query: %w", err)
	}
	return a.selectStrings(ctx, q, args...)
}

// ListTables returns the tables in a database.
func (a *Adapter) ListTables(ctx context.Context, database string) ([]string, error) {
	if database == "" {
		database = a.cfg.Schema
	}
	q, args, err := sq.Select("table_name").
		From("information_schema.tables").
		Where(sq.Eq{"table_schema": database}).
		OrderBy("table_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building table query: %w", err)
	}
	return a.selectStrings(ctx, q, args...)
}

// DescribeTable returns the column schema of a table.
func (a *Adapter) DescribeTable(ctx context.Context, database, table string) (*query.TableDescription, error) {
	if database == "" {
		database = a.cfg.Schema
	}
	q, args, err := sq.Select("column_name", "data_type").
		From("information_schema.columns").
		Where(sq.Eq{"table_schema": database, "table_name": table}).
		OrderBy("ordinal_position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building column query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("describing table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	desc := &query.TableDescription{Database: database, Table: table}
	for rows.Next() {
		var col query.Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		desc.Columns = append(desc.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	if len(desc.Columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", database, table)
	}
	return desc, nil
}

func (a *Adapter) selectStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("running metadata query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Interface compliance.
var (
	_ query.Executor     = (*Adapter)(nil)
	_ query.SchemaReader = (*Adapter)(nil)
)
