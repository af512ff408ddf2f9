package platform

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// platformInfo is the serialized platform_info response.
type platformInfo struct {
	Name          string              `json:"name"`
	Version       string              `json:"version"`
	Site          string              `json:"site"`
	Database      string              `json:"database,omitempty"`
	EnableUpdates bool                `json:"enable_updates"`
	Toolkits      map[string][]string `json:"toolkits"`
}

// registerInfoTool registers the platform_info tool, which reports the server
// identity, site, write mode and available tools.
func (p *Platform) registerInfoTool() {
	mcp.AddTool(p.mcpServer, &mcp.Tool{
		Name:        "platform_info",
		Description: "Describe this server: site, configured database, write mode and available tools.",
	}, p.handleInfo)
}

func (p *Platform) handleInfo(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	info := platformInfo{
		Name:          p.config.Server.Name,
		Version:       p.config.Server.Version,
		Site:          p.config.TD.Site,
		Database:      p.config.TD.Database,
		EnableUpdates: p.config.TD.EnableUpdates,
		Toolkits:      map[string][]string{},
	}
	for _, tk := range p.registry.All() {
		info.Toolkits[tk.Kind()] = tk.Tools()
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
