package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sfero/sfero/internal/profile"
)

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	reg, err := profile.LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	return MCPDeps{
		Resolver: profile.NewResolver(nil, reg),
		Demo:     reg,
		Version:  "test",
	}
}

func TestMCPTool_ResolveProfile_Demo(t *testing.T) {
	handler := mcpResolveProfile(newTestMCPDeps(t))

	result, err := handler(context.Background(), makeCallToolRequest("resolve_profile", map[string]interface{}{
		"slug": "demo",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var res profile.Result
	if err := json.Unmarshal([]byte(toolText(t, result)), &res); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if res.Source != profile.SourceDemo {
		t.Errorf("source = %q, want demo", res.Source)
	}
	if res.Profile == nil || len(res.Profile.Services) != 2 {
		t.Errorf("profile = %+v", res.Profile)
	}
}

func TestMCPTool_ResolveProfile_None(t *testing.T) {
	handler := mcpResolveProfile(newTestMCPDeps(t))

	result, err := handler(context.Background(), makeCallToolRequest("resolve_profile", map[string]interface{}{
		"slug": "ghost",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := toolText(t, result)
	if got != `{"profile":null,"source":"none"}` {
		t.Errorf("result = %s", got)
	}
}

func TestMCPTool_ResolveProfile_MissingSlug(t *testing.T) {
	handler := mcpResolveProfile(newTestMCPDeps(t))

	result, err := handler(context.Background(), makeCallToolRequest("resolve_profile", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing slug")
	}
}

func TestMCPResource_DemoProfiles(t *testing.T) {
	handler := mcpResourceDemoProfiles(newTestMCPDeps(t))

	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: demoProfilesURI},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var slugs []string
	if err := json.Unmarshal([]byte(tc.Text), &slugs); err != nil {
		t.Fatalf("decoding slugs: %v", err)
	}
	if len(slugs) != 3 || slugs[0] != "anna-kowalska" {
		t.Errorf("slugs = %v", slugs)
	}
}

func TestNewMCPServer(t *testing.T) {
	if s := NewMCPServer(newTestMCPDeps(t)); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}
