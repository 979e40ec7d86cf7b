package server

import (
	"context"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		ToolAnalyzeDrawing,
		ToolAnalyzeDrawings,
		ToolDetectRegions,
		ToolCheckCompliance,
		ToolCheckDesignRules,
		ToolGetSummary,
		ToolTestConnection,
	}
	if len(tools) != len(expectedTools) {
		t.Fatalf("got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want object", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			required, _ := tool.InputSchema["required"].([]string)
			for _, name := range required {
				if _, ok := props[name]; !ok {
					t.Errorf("required property %s is not declared", name)
				}
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tests := map[string][]string{
		ToolAnalyzeDrawing:   {"path"},
		ToolAnalyzeDrawings:  {"paths"},
		ToolDetectRegions:    {"path"},
		ToolCheckCompliance:  {"specification"},
		ToolCheckDesignRules: {"specification", "rules"},
		ToolGetSummary:       {"path"},
	}

	for _, tool := range GetToolDefinitions() {
		want, ok := tests[tool.Name]
		if !ok {
			continue
		}
		got, _ := tool.InputSchema["required"].([]string)
		if len(got) != len(want) {
			t.Errorf("%s required: got %v, want %v", tool.Name, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s required: got %v, want %v", tool.Name, got, want)
			}
		}
	}
}

func TestToolDefinitions_AnalyzeOptions(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name != ToolAnalyzeDrawing && tool.Name != ToolAnalyzeDrawings {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		for _, name := range []string{"rules_file", "rules", "use_references", "save_intermediate", "save_result"} {
			if _, ok := props[name]; !ok {
				t.Errorf("%s: missing property %s", tool.Name, name)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(newTestAnalyzer(t, nil), "test", nil)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatalf("tools should be []Tool, got %T", result["tools"])
	}
	if len(tools) != len(GetToolDefinitions()) {
		t.Errorf("got %d tools, want %d", len(tools), len(GetToolDefinitions()))
	}
}
