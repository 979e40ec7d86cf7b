package llm

// ToolName is the function the hosted model is forced to call.
const ToolName = "extract_specifications"

// ToolDescription accompanies ToolName in the tool declaration.
const ToolDescription = "Extract structured specifications from drawing"

func dimensionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value":           map[string]any{"type": "number"},
			"unit":            map[string]any{"type": "string"},
			"tolerance_plus":  map[string]any{"type": []string{"number", "null"}},
			"tolerance_minus": map[string]any{"type": []string{"number", "null"}},
			"feature":         map[string]any{"type": "string"},
			"confidence":      map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		},
		"required": []string{"value", "unit", "feature"},
	}
}

// SpecificationSchema returns the JSON schema of a PartSpecification as the
// model is asked to produce it. A fresh map is returned on every call.
func SpecificationSchema() map[string]any {
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"part_number": map[string]any{"type": []string{"string", "null"}},
			"material":    map[string]any{"type": []string{"string", "null"}},
			"overall_dimensions": map[string]any{
				"type":                 "object",
				"additionalProperties": dimensionSchema(),
			},
			"critical_dimensions": map[string]any{
				"type":  "array",
				"items": dimensionSchema(),
			},
			"gdt_requirements": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"symbol_type":      map[string]any{"type": "string"},
						"tolerance":        map[string]any{"type": "number"},
						"datum_references": stringList,
						"applies_to":       map[string]any{"type": "string"},
					},
					"required": []string{"symbol_type", "tolerance", "applies_to"},
				},
			},
			"views": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"view_type": map[string]any{
							"type": "string",
							"enum": []string{"top", "front", "side", "section", "detail", "isometric"},
						},
						"scale":            map[string]any{"type": []string{"string", "null"}},
						"visible_features": stringList,
					},
					"required": []string{"view_type"},
				},
			},
			"notes": stringList,
			"title_block_info": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
	}
}
