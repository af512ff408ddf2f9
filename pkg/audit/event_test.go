package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent("query")
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "query", e.ToolName)
	assert.False(t, e.Timestamp.IsZero())

	other := NewEvent("query")
	assert.NotEqual(t, e.ID, other.ID)
}

func TestEventBuilders(t *testing.T) {
	e := NewEvent("execute").
		WithQuery(query.KindUpdate, "UPDATE t SET x=1", "web_logs").
		WithResult(true, "", 42).
		WithRowCount(7).
		WithToolkit("trino", "default").
		WithRequestID("req-1")

	assert.Equal(t, "UPDATE", e.Kind)
	assert.Equal(t, "web_logs", e.Database)
	assert.True(t, e.Success)
	assert.Equal(t, int64(42), e.DurationMS)
	require.NotNil(t, e.RowCount)
	assert.Equal(t, int64(7), *e.RowCount)
	assert.Equal(t, "trino", e.ToolkitKind)
	assert.Equal(t, "req-1", e.RequestID)
}

func TestSanitizeParameters(t *testing.T) {
	got := SanitizeParameters(map[string]any{
		"sql":     "SELECT 1",
		"api_key": "1/secret",
		"token":   "abc",
	})
	assert.Equal(t, "SELECT 1", got["sql"])
	assert.Equal(t, "[REDACTED]", got["api_key"])
	assert.Equal(t, "[REDACTED]", got["token"])

	assert.Nil(t, SanitizeParameters(nil))
}

func TestWithParametersSanitizes(t *testing.T) {
	e := NewEvent("query").WithParameters(map[string]any{"password": "x", "limit": 10})
	assert.Equal(t, "[REDACTED]", e.Parameters["password"])
	assert.Equal(t, 10, e.Parameters["limit"])
}
