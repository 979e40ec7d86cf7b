package compliance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

const sampleRules = `{
	"text_rules": ["Minimum wall thickness: 2mm", "Maximum aspect ratio: 10:1"],
	"numeric_rules": {"min_wall_thickness": 2.0, "max_aspect_ratio": 10},
	"material_rules": {"require_material_spec": true, "allowed_materials": ["6061-T6", "304 Stainless"]},
	"gdt_rules": {"max_position": 0.1, "require_datums": true}
}`

func TestParseRules(t *testing.T) {
	rs, err := ParseRules([]byte(sampleRules))
	require.NoError(t, err)

	assert.Equal(t, []string{"Minimum wall thickness: 2mm", "Maximum aspect ratio: 10:1"}, rs.TextRules)
	require.Len(t, rs.Rules, 6)

	byName := map[string]Rule{}
	for _, r := range rs.Rules {
		byName[r.Name] = r
		assert.Equal(t, model.SeverityError, r.Severity)
	}

	assert.Equal(t, Rule{Name: "max_aspect_ratio", Category: CategoryDimensional, Kind: KindNumeric, Threshold: 10, Severity: model.SeverityError}, byName["max_aspect_ratio"])
	assert.Equal(t, KindExists, byName["require_material_spec"].Kind)
	assert.True(t, byName["require_material_spec"].Flag)
	assert.Equal(t, KindList, byName["allowed_materials"].Kind)
	assert.Equal(t, []string{"6061-T6", "304 Stainless"}, byName["allowed_materials"].Allowed)
	assert.Equal(t, KindNumeric, byName["max_position"].Kind)
	assert.Equal(t, 0.1, byName["max_position"].Threshold)
	assert.Equal(t, KindBoolean, byName["require_datums"].Kind)
	assert.Equal(t, CategoryGDT, byName["require_datums"].Category)

	// numeric rules first, sorted by name
	assert.Equal(t, "max_aspect_ratio", rs.Rules[0].Name)
	assert.Equal(t, "min_wall_thickness", rs.Rules[1].Name)
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "{"},
		{"require with list", `{"material_rules": {"require_material_spec": ["x"]}}`},
		{"allowed with bool", `{"material_rules": {"allowed_materials": true}}`},
		{"gdt string", `{"gdt_rules": {"max_flatness": "tight"}}`},
		{"numeric string", `{"numeric_rules": {"min_wall_thickness": "2mm"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o644))

	rs, err := LoadRules(path)
	require.NoError(t, err)
	assert.False(t, rs.IsEmpty())

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRuleSet_IsEmpty(t *testing.T) {
	assert.True(t, RuleSet{}.IsEmpty())
	assert.False(t, RuleSet{TextRules: []string{"x"}}.IsEmpty())
}
