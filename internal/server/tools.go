package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Tool names.
const (
	ToolAnalyzeDrawing   = "analyze_drawing"
	ToolAnalyzeDrawings  = "analyze_drawings"
	ToolDetectRegions    = "detect_regions"
	ToolCheckCompliance  = "check_compliance"
	ToolCheckDesignRules = "check_design_rules"
	ToolGetSummary       = "get_summary"
	ToolTestConnection   = "test_connection"
)

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the drawing image",
	}
}

func rulesProperties() map[string]interface{} {
	return map[string]interface{}{
		"rules_file": map[string]interface{}{
			"type":        "string",
			"description": "Path to a JSON rule file with numeric_rules, material_rules, gdt_rules and text_rules",
		},
		"rules": map[string]interface{}{
			"type":        "object",
			"description": "Inline rule document, same shape as a rule file. Takes precedence over rules_file",
		},
	}
}

func analyzeProperties() map[string]interface{} {
	props := rulesProperties()
	props["use_references"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Add retrieved reference context to the prompt. Default false",
		"default":     false,
	}
	props["save_intermediate"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Write <stem>_cv.json with regions and CV metadata. Default false",
		"default":     false,
	}
	props["save_result"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Write <stem>_result.json to the result sink. Default false",
		"default":     false,
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	analyzeDrawing := analyzeProperties()
	analyzeDrawing["path"] = pathProperty()

	analyzeDrawings := analyzeProperties()
	analyzeDrawings["paths"] = map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Absolute paths to the drawing images",
	}
	analyzeDrawings["workers"] = map[string]interface{}{
		"type":        "integer",
		"description": "Drawings analyzed concurrently. Default 1",
		"default":     1,
	}

	checkCompliance := rulesProperties()
	checkCompliance["specification"] = map[string]interface{}{
		"type":        "object",
		"description": "Part specification as returned by analyze_drawing",
	}

	return []Tool{
		{
			Name:        ToolAnalyzeDrawing,
			Description: "Analyze a mechanical drawing: detect layout regions, extract part number, material, dimensions, GD&T and views with the vision model, and check compliance rules. Returns the full analysis result and a summary.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analyzeDrawing,
				"required":   []string{"path"},
			},
		},
		{
			Name:        ToolAnalyzeDrawings,
			Description: "Analyze several drawings with the same rules. One failed drawing does not stop the others; each item reports its result or error.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analyzeDrawings,
				"required":   []string{"paths"},
			},
		},
		{
			Name:        ToolDetectRegions,
			Description: "Detect title block, table, drawing view and detail regions on a drawing without calling the vision model.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        ToolCheckCompliance,
			Description: "Check a part specification against compliance rules and return structured violations.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": checkCompliance,
				"required":   []string{"specification"},
			},
		},
		{
			Name:        ToolCheckDesignRules,
			Description: "Check a part specification against numeric design rules (min_wall_thickness, max_aspect_ratio, max_position_tolerance) and return one message per violation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"specification": map[string]interface{}{
						"type":        "object",
						"description": "Part specification as returned by analyze_drawing",
					},
					"rules": map[string]interface{}{
						"type":                 "object",
						"description":          "Rule name to threshold",
						"additionalProperties": map[string]interface{}{"type": "number"},
					},
				},
				"required": []string{"specification", "rules"},
			},
		},
		{
			Name:        ToolGetSummary,
			Description: "Return the human-readable summary of the last analysis of a drawing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"markdown", "html"},
						"description": "Summary format. Default markdown",
						"default":     "markdown",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        ToolTestConnection,
			Description: "Check that the configured vision model provider is reachable.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
