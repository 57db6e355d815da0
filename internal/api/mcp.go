package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const demoProfilesURI = "sfero://demo-profiles"

// DemoCatalog lists the slugs available in the demo registry.
// Implemented by profile.Registry.
type DemoCatalog interface {
	Slugs() []string
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Resolver ProfileResolver
	Demo     DemoCatalog
	Version  string
}

// NewMCPServer creates an MCP server exposing profile resolution.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"sfero",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Resolve sfero public booking profiles by slug."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("resolve_profile",
			mcp.WithDescription("Resolve a public booking profile by slug. Returns the profile and which source answered (api, demo or none)."),
			mcp.WithString("slug", mcp.Description("Profile slug, as in /public/{slug}"), mcp.Required()),
		),
		mcpResolveProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			demoProfilesURI,
			"Demo profiles",
			mcp.WithResourceDescription("Slugs served by the demo registry fallback"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceDemoProfiles(deps),
	)

	return s
}

func mcpResolveProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		slug, err := req.RequireString("slug")
		if err != nil || slug == "" {
			return mcpError("slug is required"), nil
		}

		res := deps.Resolver.Resolve(ctx, slug)
		b, err := json.Marshal(res)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceDemoProfiles(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		slugs := []string{}
		if deps.Demo != nil {
			slugs = append(slugs, deps.Demo.Slugs()...)
		}
		b, err := json.Marshal(slugs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal slugs: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
