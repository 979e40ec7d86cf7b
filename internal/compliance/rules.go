package compliance

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// Category selects the matching logic applied to a rule.
type Category string

const (
	CategoryDimensional Category = "dimensional"
	CategoryMaterial    Category = "material"
	CategoryGDT         Category = "gdt"
)

// Kind describes what a rule's value holds.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindBoolean Kind = "boolean"
	KindExists  Kind = "exists"
	KindList    Kind = "list"
)

// Well-known rule names.
const (
	RuleMinWallThickness     = "min_wall_thickness"
	RuleMaxAspectRatio       = "max_aspect_ratio"
	RuleRequireMaterialSpec  = "require_material_spec"
	RuleAllowedMaterials     = "allowed_materials"
	RuleMaxPositionTolerance = "max_position_tolerance"
)

// Rule is a single design rule.
type Rule struct {
	Name     string
	Category Category
	Kind     Kind

	// Threshold is the comparison value for numeric rules.
	Threshold float64

	// Flag is the value of boolean and exists rules.
	Flag bool

	// Allowed is the value of list rules.
	Allowed []string

	// Tolerance widens a numeric threshold before a violation is raised.
	Tolerance float64

	// Unit is the unit of Threshold for dimensional rules. Empty means mm.
	Unit string

	Severity model.Severity
}

// EffectiveKind returns Kind, or infers it from the populated value when
// Kind is unset: Allowed means list, a set Flag means boolean, anything
// else is numeric.
func (r Rule) EffectiveKind() Kind {
	switch {
	case r.Kind != "":
		return r.Kind
	case r.Allowed != nil:
		return KindList
	case r.Flag:
		return KindBoolean
	default:
		return KindNumeric
	}
}

// RuleSet is a loaded rule file: structured rules plus free-text rules that
// are only passed to the model.
type RuleSet struct {
	Rules     []Rule
	TextRules []string
}

// IsEmpty reports whether the set carries no rules of either kind.
func (rs RuleSet) IsEmpty() bool {
	return len(rs.Rules) == 0 && len(rs.TextRules) == 0
}

type ruleFile struct {
	NumericRules  map[string]float64         `json:"numeric_rules"`
	MaterialRules map[string]json.RawMessage `json:"material_rules"`
	GDTRules      map[string]json.RawMessage `json:"gdt_rules"`
	TextRules     []string                   `json:"text_rules"`
}

// LoadRules reads a JSON rule file.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules %s: %w", path, err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// ParseRules decodes a rule document of the form
//
//	{"numeric_rules": {...}, "material_rules": {...}, "gdt_rules": {...}, "text_rules": [...]}
//
// Numeric rules are dimensional. Material rules whose name contains
// "require" are exists checks, the rest are allow-lists. GD&T rules are
// numeric when their value is a number and boolean otherwise. Rules within a
// section are ordered by name.
func ParseRules(data []byte) (RuleSet, error) {
	var f ruleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules: %w", err)
	}

	var rs RuleSet
	rs.TextRules = f.TextRules

	for _, name := range sortedKeys(f.NumericRules) {
		rs.Rules = append(rs.Rules, Rule{
			Name:      name,
			Category:  CategoryDimensional,
			Kind:      KindNumeric,
			Threshold: f.NumericRules[name],
			Severity:  model.SeverityError,
		})
	}

	for _, name := range sortedKeys(f.MaterialRules) {
		rule := Rule{Name: name, Category: CategoryMaterial, Severity: model.SeverityError}
		raw := f.MaterialRules[name]
		if strings.Contains(name, "require") {
			rule.Kind = KindExists
			if err := json.Unmarshal(raw, &rule.Flag); err != nil {
				return RuleSet{}, fmt.Errorf("material rule %s: expected boolean: %w", name, err)
			}
		} else {
			rule.Kind = KindList
			if err := json.Unmarshal(raw, &rule.Allowed); err != nil {
				return RuleSet{}, fmt.Errorf("material rule %s: expected list of strings: %w", name, err)
			}
		}
		rs.Rules = append(rs.Rules, rule)
	}

	for _, name := range sortedKeys(f.GDTRules) {
		rule := Rule{Name: name, Category: CategoryGDT, Severity: model.SeverityError}
		raw := f.GDTRules[name]
		if err := json.Unmarshal(raw, &rule.Threshold); err == nil {
			rule.Kind = KindNumeric
		} else {
			rule.Kind = KindBoolean
			if err := json.Unmarshal(raw, &rule.Flag); err != nil {
				return RuleSet{}, fmt.Errorf("gdt rule %s: expected number or boolean: %w", name, err)
			}
		}
		rs.Rules = append(rs.Rules, rule)
	}

	return rs, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
