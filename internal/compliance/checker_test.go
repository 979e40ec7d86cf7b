package compliance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

func strPtr(s string) *string { return &s }

func numericRule(name string, threshold float64) Rule {
	return Rule{Name: name, Category: CategoryDimensional, Kind: KindNumeric, Threshold: threshold, Severity: model.SeverityError}
}

func gdtRule(name string, threshold float64) Rule {
	return Rule{Name: name, Category: CategoryGDT, Kind: KindNumeric, Threshold: threshold, Severity: model.SeverityError}
}

func specWith(fn func(s *model.PartSpecification)) *model.PartSpecification {
	s := model.EmptySpecification()
	fn(s)
	return s
}

func TestCheck_WallThickness(t *testing.T) {
	spec := specWith(func(s *model.PartSpecification) {
		s.CriticalDimensions = []model.Dimension{
			{Feature: "bore diameter", Value: 0.5, Unit: "mm"},
			{Feature: "wall thickness", Value: 1.5, Unit: "mm"},
		}
	})

	got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{numericRule(RuleMinWallThickness, 2.0)}})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, RuleMinWallThickness, got[0].Rule)
	assert.Equal(t, "wall thickness", got[0].Location)
	assert.Contains(t, got[0].Message, "Wall thickness 1.5mm")
	assert.Equal(t, model.SeverityError, got[0].Severity)
}

func TestCheck_WallThicknessConvertsUnits(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  string
		want  int
	}{
		{"inches above", 0.1, "in", 0}, // 2.54mm
		{"inches below", 0.05, "IN", 1},
		{"centimeters below", 0.15, "cm", 1},
		{"exactly at limit", 2.0, "mm", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := specWith(func(s *model.PartSpecification) {
				s.CriticalDimensions = []model.Dimension{{Feature: "Thickness", Value: tt.value, Unit: tt.unit}}
			})
			got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{numericRule(RuleMinWallThickness, 2.0)}})
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestCheck_UnsupportedUnitIsFatal(t *testing.T) {
	spec := specWith(func(s *model.PartSpecification) {
		s.CriticalDimensions = []model.Dimension{{Feature: "wall", Value: 3, Unit: "furlong"}}
	})

	got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{numericRule(RuleMinWallThickness, 2.0)}})

	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrUnsupportedUnit))
}

func TestCheck_AspectRatio(t *testing.T) {
	tests := []struct {
		name  string
		width float64
		want  int
	}{
		{"ratio 20", 5, 1},
		{"ratio 10", 10, 0},
		{"ratio 4", 25, 0},
		{"zero width", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := specWith(func(s *model.PartSpecification) {
				s.OverallDimensions["length"] = model.Dimension{Value: 100}
				s.OverallDimensions["width"] = model.Dimension{Value: tt.width}
			})
			got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{numericRule(RuleMaxAspectRatio, 10)}})
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			if tt.want == 1 {
				assert.Equal(t, "overall dimensions", got[0].Location)
			}
		})
	}
}

func TestCheck_AspectRatioNeedsBothKeys(t *testing.T) {
	spec := specWith(func(s *model.PartSpecification) {
		s.OverallDimensions["length"] = model.Dimension{Value: 100}
	})
	got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{numericRule(RuleMaxAspectRatio, 10)}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheck_GDT(t *testing.T) {
	tests := []struct {
		name      string
		tolerance float64
		want      int
	}{
		{"exceeds", 0.2, 1},
		{"at limit", 0.1, 0},
		{"below", 0.05, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := specWith(func(s *model.PartSpecification) {
				s.GDTRequirements = []model.GDTSymbol{
					{SymbolType: "flatness", Tolerance: 5},
					{SymbolType: "Position", Tolerance: tt.tolerance, AppliesTo: "hole pattern"},
				}
			})
			got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{gdtRule("max_position", 0.1)}})
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			if tt.want == 1 {
				assert.Contains(t, got[0].Message, "Position")
				assert.Equal(t, "hole pattern", got[0].Location)
			}
		})
	}
}

func TestCheck_Material(t *testing.T) {
	requireRule := Rule{Name: RuleRequireMaterialSpec, Category: CategoryMaterial, Kind: KindExists, Flag: true, Severity: model.SeverityError}
	allowRule := Rule{Name: RuleAllowedMaterials, Category: CategoryMaterial, Kind: KindList,
		Allowed: []string{"6061-T6", "304 Stainless"}, Severity: model.SeverityError}

	t.Run("missing material", func(t *testing.T) {
		got, err := NewChecker(nil).Check(model.EmptySpecification(), RuleSet{Rules: []Rule{requireRule, allowRule}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, RuleRequireMaterialSpec, got[0].Rule)
		assert.Equal(t, "title block", got[0].Location)
	})

	t.Run("allowed material", func(t *testing.T) {
		spec := specWith(func(s *model.PartSpecification) { s.Material = strPtr("6061-T6") })
		got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{requireRule, allowRule}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("membership is exact", func(t *testing.T) {
		for _, material := range []string{"6061-t6", "6061-T6 ", "  304 Stainless", "304 STAINLESS"} {
			spec := specWith(func(s *model.PartSpecification) { s.Material = strPtr(material) })
			got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{requireRule, allowRule}})
			require.NoError(t, err)
			require.Len(t, got, 1, "material %q", material)
			assert.Equal(t, RuleAllowedMaterials, got[0].Rule)
		}
	})

	t.Run("blank material is present", func(t *testing.T) {
		spec := specWith(func(s *model.PartSpecification) { s.Material = strPtr("   ") })
		got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{requireRule, allowRule}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, RuleAllowedMaterials, got[0].Rule)
		assert.Equal(t, "Material '   ' not in approved list", got[0].Message)
	})

	t.Run("empty material string is missing", func(t *testing.T) {
		spec := specWith(func(s *model.PartSpecification) { s.Material = strPtr("") })
		got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{requireRule, allowRule}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, RuleRequireMaterialSpec, got[0].Rule)
	})

	t.Run("disallowed material is a warning", func(t *testing.T) {
		spec := specWith(func(s *model.PartSpecification) { s.Material = strPtr("Brass C360") })
		got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{requireRule, allowRule}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, model.SeverityWarning, got[0].Severity)
		assert.Equal(t, "Material 'Brass C360' not in approved list", got[0].Message)
	})

	t.Run("require disabled", func(t *testing.T) {
		off := requireRule
		off.Flag = false
		got, err := NewChecker(nil).Check(model.EmptySpecification(), RuleSet{Rules: []Rule{off}})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCheck_GDTRuleWithoutKind(t *testing.T) {
	spec := specWith(func(s *model.PartSpecification) {
		s.GDTRequirements = []model.GDTSymbol{{SymbolType: "flatness", Tolerance: 0.3, AppliesTo: "face B"}}
	})
	rule := Rule{Name: "max_flatness", Category: CategoryGDT, Threshold: 0.1, Severity: model.SeverityError}

	got, err := NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{rule}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Flatness tolerance 0.3 exceeds maximum 0.1", got[0].Message)

	rule.Flag = true
	got, err = NewChecker(nil).Check(spec, RuleSet{Rules: []Rule{rule}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRule_EffectiveKind(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want Kind
	}{
		{"explicit", Rule{Kind: KindExists}, KindExists},
		{"allowed list", Rule{Allowed: []string{}}, KindList},
		{"flag", Rule{Flag: true}, KindBoolean},
		{"threshold", Rule{Threshold: 0.2}, KindNumeric},
		{"zero value", Rule{}, KindNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.EffectiveKind())
		})
	}
}

func TestCheck_EmptySpecification(t *testing.T) {
	rules := RuleSet{Rules: []Rule{
		numericRule(RuleMinWallThickness, 2),
		numericRule(RuleMaxAspectRatio, 10),
		gdtRule("max_position", 0.1),
		gdtRule("max_flatness", 0.05),
		{Name: RuleAllowedMaterials, Category: CategoryMaterial, Kind: KindList, Allowed: []string{"steel"}},
		{Name: "anything", Category: "surface", Kind: KindNumeric, Threshold: 1},
	}}

	got, err := NewChecker(nil).Check(model.EmptySpecification(), rules)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got, err = NewChecker(nil).Check(nil, rules)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheck_IndependentRules(t *testing.T) {
	spec := specWith(func(s *model.PartSpecification) {
		s.CriticalDimensions = []model.Dimension{{Feature: "wall", Value: 1, Unit: "mm"}}
		s.OverallDimensions["length"] = model.Dimension{Value: 300}
		s.OverallDimensions["width"] = model.Dimension{Value: 10}
		s.GDTRequirements = []model.GDTSymbol{{SymbolType: "position", Tolerance: 1}}
	})
	rules := RuleSet{Rules: []Rule{
		numericRule(RuleMinWallThickness, 2),
		numericRule(RuleMaxAspectRatio, 10),
		gdtRule("max_position", 0.1),
		{Name: RuleRequireMaterialSpec, Category: CategoryMaterial, Kind: KindExists, Flag: true, Severity: model.SeverityWarning},
	}}

	got, err := NewChecker(nil).Check(spec, rules)
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, RuleMinWallThickness, got[0].Rule)
	assert.Equal(t, RuleMaxAspectRatio, got[1].Rule)
	assert.Equal(t, "max_position", got[2].Rule)
	assert.Equal(t, model.SeverityWarning, got[3].Severity)
}

func TestConvertToMM(t *testing.T) {
	tests := []struct {
		unit string
		want float64
	}{
		{"mm", 2},
		{"MM", 2},
		{"cm", 20},
		{"in", 50.8},
		{"In", 50.8},
		{"ft", 609.6},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			got, err := ConvertToMM(2, tt.unit)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	for _, unit := range []string{"m", "yd", "", "inch"} {
		_, err := ConvertToMM(2, unit)
		assert.ErrorIs(t, err, ErrUnsupportedUnit, "unit %q", unit)
	}
}
