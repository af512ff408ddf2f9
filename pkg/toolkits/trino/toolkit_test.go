package trino

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/middleware"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
)

type fakeBackend struct {
	lastSQL      string
	lastDatabase string
	result       *query.Result
	err          error
	databases    []string
	tables       []string
	description  *query.TableDescription
	closed       bool
}

func (f *fakeBackend) Execute(_ context.Context, sql, database string) (*query.Result, error) {
	f.lastSQL = sql
	f.lastDatabase = database
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &query.Result{}, nil
}

func (f *fakeBackend) ListDatabases(context.Context) ([]string, error) {
	return f.databases, f.err
}

func (f *fakeBackend) ListTables(_ context.Context, database string) ([]string, error) {
	f.lastDatabase = database
	return f.tables, f.err
}

func (f *fakeBackend) DescribeTable(_ context.Context, database, table string) (*query.TableDescription, error) {
	f.lastDatabase = database
	if f.err != nil {
		return nil, f.err
	}
	return f.description, nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func newTestToolkit(t *testing.T, allowWrites bool, backend *fakeBackend) *Toolkit {
	t.Helper()
	gate := query.NewGate(query.AccessPolicy{AllowWrites: allowWrites})
	tk, err := New("default", Config{DefaultDatabase: "analytics"}, gate, backend)
	require.NoError(t, err)
	return tk
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewValidation(t *testing.T) {
	gate := query.NewGate(query.AccessPolicy{})

	_, err := New("default", Config{}, nil, &fakeBackend{})
	assert.Error(t, err)

	_, err = New("default", Config{}, gate, nil)
	assert.Error(t, err)

	tk, err := New("default", Config{}, gate, &fakeBackend{})
	require.NoError(t, err)
	assert.Equal(t, defaultQueryLimit, tk.config.DefaultLimit)
	assert.Equal(t, defaultMaxLimit, tk.config.MaxLimit)
	assert.Equal(t, "trino", tk.Kind())
	assert.Equal(t, "default", tk.Name())
}

func TestHandleQuerySelect(t *testing.T) {
	backend := &fakeBackend{result: &query.Result{
		Columns: []query.Column{{Name: "cnt", Type: "bigint"}},
		Rows:    [][]any{{int64(42)}},
		Count:   1,
	}}
	tk := newTestToolkit(t, false, backend)

	res, _, err := tk.handleQuery(context.Background(), nil, queryInput{SQL: "SELECT count(*) FROM www_access"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "SELECT count(*) FROM www_access LIMIT 1000", backend.lastSQL)
	assert.Equal(t, "analytics", backend.lastDatabase)
	assert.Contains(t, resultText(t, res), "cnt")
}

func TestHandleQueryPublishesCallAttribution(t *testing.T) {
	backend := &fakeBackend{result: &query.Result{Count: 2}}
	tk := newTestToolkit(t, false, backend)

	cc := middleware.NewCallContext("req-1")
	ctx := middleware.WithCallContext(context.Background(), cc)
	_, _, err := tk.handleQuery(ctx, nil, queryInput{SQL: "SELECT * FROM users", Database: "web"})
	require.NoError(t, err)

	assert.Equal(t, query.KindSelect, cc.Kind)
	assert.Equal(t, "SELECT * FROM users", cc.SQL)
	assert.Equal(t, "web", cc.Database)
	require.NotNil(t, cc.RowCount)
	assert.Equal(t, int64(2), *cc.RowCount)
}

func TestHandleQueryPublishesKindOnRejection(t *testing.T) {
	backend := &fakeBackend{}
	tk := newTestToolkit(t, false, backend)

	cc := middleware.NewCallContext("req-2")
	ctx := middleware.WithCallContext(context.Background(), cc)
	res, _, err := tk.handleQuery(ctx, nil, queryInput{SQL: "DELETE FROM users"})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	assert.Equal(t, query.KindDelete, cc.Kind)
	assert.Equal(t, "DELETE FROM users", cc.SQL)
	assert.Nil(t, cc.RowCount)
}

func TestHandleExecutePublishesCallAttribution(t *testing.T) {
	backend := &fakeBackend{result: &query.Result{AffectedRows: 7}}
	tk := newTestToolkit(t, true, backend)

	cc := middleware.NewCallContext("req-3")
	ctx := middleware.WithCallContext(context.Background(), cc)
	_, _, err := tk.handleExecute(ctx, nil, executeInput{SQL: "DELETE FROM users WHERE id = 1"})
	require.NoError(t, err)

	assert.Equal(t, query.KindDelete, cc.Kind)
	assert.Equal(t, "analytics", cc.Database)
	require.NotNil(t, cc.RowCount)
	assert.Equal(t, int64(7), *cc.RowCount)
}

func TestHandleQueryExistingLimitKept(t *testing.T) {
	backend := &fakeBackend{}
	tk := newTestToolkit(t, false, backend)

	_, _, err := tk.handleQuery(context.Background(), nil, queryInput{SQL: "SELECT 1 LIMIT 5", Database: "raw"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 LIMIT 5", backend.lastSQL)
	assert.Equal(t, "raw", backend.lastDatabase)
}

func TestHandleQueryLimitClamped(t *testing.T) {
	backend := &fakeBackend{}
	tk := newTestToolkit(t, false, backend)

	_, _, err := tk.handleQuery(context.Background(), nil, queryInput{SQL: "SELECT 1", Limit: 500000})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 LIMIT 10000", backend.lastSQL)
}

func TestHandleQueryRejectsWriteInReadOnly(t *testing.T) {
	backend := &fakeBackend{}
	tk := newTestToolkit(t, false, backend)

	res, _, err := tk.handleQuery(context.Background(), nil, queryInput{SQL: "DELETE FROM www_access"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "DELETE operations are not allowed")
	assert.Empty(t, backend.lastSQL)
}

func TestHandleQueryRejectsSmuggledCTEWrite(t *testing.T) {
	backend := &fakeBackend{}
	tk := newTestToolkit(t, false, backend)

	sql := "WITH d AS (DELETE FROM t RETURNING *) SELECT * FROM d"
	res, _, err := tk.handleQuery(context.Background(), nil, queryInput{SQL: sql})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "WITH clauses containing write operations")
}

func TestHandleQueryNoLimitForShow(t *testing.T) {
	backend := &fakeBackend{}
	tk := newTestToolkit(t, false, backend)

	_, _, err := tk.handleQuery(context.Background(), nil, queryInput{SQL: "SHOW TABLES"})
	require.NoError(t, err)
	assert.Equal(t, "SHOW TABLES", backend.lastSQL)
}

func TestHandleExecuteWrite(t *testing.T) {
	backend := &fakeBackend{result: &query.Result{AffectedRows: 3}}
	tk := newTestToolkit(t, true, backend)

	res, _, err := tk.handleExecute(context.Background(), nil, executeInput{SQL: "DELETE FROM www_access WHERE code = 500"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"affected_rows": 3`)
	assert.Contains(t, resultText(t, res), `"kind": "DELETE"`)
}

func TestHandleExecuteRejectedInReadOnly(t *testing.T) {
	backend := &fakeBackend{}
	tk := newTestToolkit(t, false, backend)

	res, _, err := tk.handleExecute(context.Background(), nil, executeInput{SQL: "DROP TABLE www_access"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "DROP operations are not allowed")
}

func TestHandleExecuteRedirectsReads(t *testing.T) {
	backend := &fakeBackend{}
	tk := newTestToolkit(t, true, backend)

	res, _, err := tk.handleExecute(context.Background(), nil, executeInput{SQL: "SELECT * FROM www_access"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Use the query tool")
	assert.Empty(t, backend.lastSQL)
}

func TestHandleListTablesDefaultDatabase(t *testing.T) {
	backend := &fakeBackend{tables: []string{"www_access", "events"}}
	tk := newTestToolkit(t, false, backend)

	res, _, err := tk.handleListTables(context.Background(), nil, listTablesInput{})
	require.NoError(t, err)
	assert.Equal(t, "analytics", backend.lastDatabase)
	assert.Contains(t, resultText(t, res), "www_access")
}

func TestHandleDescribeTableRequiresTable(t *testing.T) {
	tk := newTestToolkit(t, false, &fakeBackend{})

	res, _, err := tk.handleDescribeTable(context.Background(), nil, describeTableInput{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "table is required")
}

func TestClose(t *testing.T) {
	backend := &fakeBackend{}
	tk := newTestToolkit(t, false, backend)
	require.NoError(t, tk.Close())
	assert.True(t, backend.closed)
}
