package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"
)

// Resource template URI patterns.
const (
	tableTemplateURI    = "td://{database}/{table}"
	databaseTemplateURI = "td://{database}"
)

// registerResourceTemplates registers the td:// resource templates. Only
// called when resources.enabled is true and the Trino toolkit is active.
func (p *Platform) registerResourceTemplates() {
	if !p.config.Resources.Enabled || p.schema == nil {
		return
	}

	p.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: tableTemplateURI,
		Name:        "Table Schema",
		Description: "Column names and types of a Treasure Data table",
		MIMEType:    "application/json",
	}, p.handleTableResource)

	p.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: databaseTemplateURI,
		Name:        "Database Tables",
		Description: "Tables in a Treasure Data database",
		MIMEType:    "application/json",
	}, p.handleDatabaseResource)
}

// parseTemplateVars extracts named variables from a URI using a URI template.
func parseTemplateVars(templateStr, uri string) (map[string]string, error) {
	tmpl, err := uritemplate.New(templateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid template %q: %w", templateStr, err)
	}

	match := tmpl.Match(uri)
	if match == nil {
		return nil, fmt.Errorf("uri %q does not match template %q", uri, templateStr)
	}

	result := make(map[string]string)
	for _, name := range tmpl.Varnames() {
		result[name] = match.Get(name).String()
	}
	return result, nil
}

// handleTableResource handles td://{database}/{table} requests.
func (p *Platform) handleTableResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	vars, err := parseTemplateVars(tableTemplateURI, uri)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is
	}

	database := vars["database"]
	table := vars["table"]
	if database == "" || table == "" {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is
	}

	desc, err := p.schema.DescribeTable(ctx, database, table)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is
	}
	return marshalResourceResult(uri, desc)
}

// handleDatabaseResource handles td://{database} requests.
func (p *Platform) handleDatabaseResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	vars, err := parseTemplateVars(databaseTemplateURI, uri)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is
	}

	database := vars["database"]
	if database == "" {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is
	}

	tables, err := p.schema.ListTables(ctx, database)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is
	}
	return marshalResourceResult(uri, map[string]any{
		"database": database,
		"tables":   tables,
	})
}

// marshalResourceResult marshals a value to JSON and wraps it in a
// ReadResourceResult.
func marshalResourceResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
