package platform

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/query"
)

func TestParseTemplateVars(t *testing.T) {
	vars, err := parseTemplateVars(tableTemplateURI, "td://analytics/www_access")
	require.NoError(t, err)
	assert.Equal(t, "analytics", vars["database"])
	assert.Equal(t, "www_access", vars["table"])
}

func TestParseTemplateVarsNoMatch(t *testing.T) {
	_, err := parseTemplateVars(tableTemplateURI, "s3://bucket/key")
	assert.Error(t, err)
}

func newResourcePlatform(t *testing.T, backend *stubBackend) *Platform {
	t.Helper()
	cfg := testConfig()
	cfg.Resources.Enabled = true
	p, err := New(
		WithConfig(cfg),
		WithTrinoBackend(backend),
		WithHiveEngine(stubEngine{}),
		WithWorkflowService(stubWorkflow{}),
		WithCDPService(stubCDP{}),
	)
	require.NoError(t, err)
	return p
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestHandleTableResource(t *testing.T) {
	backend := &stubBackend{desc: &query.TableDescription{
		Database: "analytics",
		Table:    "www_access",
		Columns:  []query.Column{{Name: "time", Type: "bigint"}},
	}}
	p := newResourcePlatform(t, backend)
	defer p.Close()

	res, err := p.handleTableResource(context.Background(), readRequest("td://analytics/www_access"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	assert.Contains(t, res.Contents[0].Text, "www_access")
	assert.Contains(t, res.Contents[0].Text, "bigint")
}

func TestHandleTableResourceNotFound(t *testing.T) {
	p := newResourcePlatform(t, &stubBackend{})
	defer p.Close()

	_, err := p.handleTableResource(context.Background(), readRequest("td://analytics/missing"))
	assert.Error(t, err)
}

func TestHandleDatabaseResource(t *testing.T) {
	backend := &stubBackend{tables: []string{"www_access", "events"}}
	p := newResourcePlatform(t, backend)
	defer p.Close()

	res, err := p.handleDatabaseResource(context.Background(), readRequest("td://analytics"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, "events")
}
