//nolint:revive // package contains related DTO types
package query

import "context"

// Column describes a result column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Result represents the result of executing one statement.
type Result struct {
	Columns      []Column `json:"columns"`
	Rows         [][]any  `json:"rows"`
	Count        int      `json:"count"`
	AffectedRows int64    `json:"affected_rows,omitempty"`
	Truncated    bool     `json:"truncated,omitempty"`
}

// TableDescription describes one table's schema.
type TableDescription struct {
	Database string   `json:"database"`
	Table    string   `json:"table"`
	Columns  []Column `json:"columns"`
}

// Executor runs validated SQL against a query engine. Trino implements this
// directly; Hive implements it over the job API.
type Executor interface {
	// Execute runs sql against database and returns results.
	Execute(ctx context.Context, sql, database string) (*Result, error)

	// Close releases resources.
	Close() error
}

// SchemaReader exposes catalog metadata for engines that support it.
type SchemaReader interface {
	ListDatabases(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, database string) ([]string, error)
	DescribeTable(ctx context.Context, database, table string) (*TableDescription, error)
}
