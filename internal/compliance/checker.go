package compliance

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// Checker evaluates a specification against a rule set.
type Checker struct {
	logger *zap.Logger
}

// NewChecker creates a Checker. A nil logger disables logging.
func NewChecker(logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{logger: logger.Named("compliance")}
}

// Check evaluates every rule independently and returns the violations in
// rule order. Each rule contributes at most one violation. Missing data
// makes a rule inapplicable; only require_material_spec treats absence as a
// violation. Rules with an unknown category or name are ignored.
//
// An unsupported unit on a dimension that a rule inspects is fatal and
// returns ErrUnsupportedUnit.
func (c *Checker) Check(spec *model.PartSpecification, rules RuleSet) ([]model.Violation, error) {
	if spec == nil {
		spec = model.EmptySpecification()
	}

	violations := []model.Violation{}
	for _, rule := range rules.Rules {
		v, err := checkRule(spec, rule)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		if v != nil {
			violations = append(violations, *v)
		}
	}

	if len(violations) > 0 {
		c.logger.Info("violations found",
			zap.Int("count", len(violations)),
			zap.Int("rules", len(rules.Rules)),
		)
	}
	return violations, nil
}

func checkRule(spec *model.PartSpecification, rule Rule) (*model.Violation, error) {
	switch rule.Category {
	case CategoryDimensional:
		return checkDimensional(spec, rule)
	case CategoryMaterial:
		return checkMaterial(spec, rule), nil
	case CategoryGDT:
		return checkGDT(spec, rule), nil
	default:
		return nil, nil
	}
}

func isWallFeature(feature string) bool {
	f := strings.ToLower(feature)
	return strings.Contains(f, "wall") || strings.Contains(f, "thickness")
}

func checkDimensional(spec *model.PartSpecification, rule Rule) (*model.Violation, error) {
	switch rule.Name {
	case RuleMinWallThickness:
		unit := rule.Unit
		if unit == "" {
			unit = "mm"
		}
		minMM, err := ConvertToMM(rule.Threshold-rule.Tolerance, unit)
		if err != nil {
			return nil, err
		}
		for _, dim := range spec.CriticalDimensions {
			if !isWallFeature(dim.Feature) {
				continue
			}
			valueMM, err := ConvertToMM(dim.Value, dim.Unit)
			if err != nil {
				return nil, err
			}
			if valueMM < minMM {
				return &model.Violation{
					Rule:     rule.Name,
					Severity: rule.Severity,
					Message: fmt.Sprintf("Wall thickness %g%s (%.2fmm) below minimum %g%s",
						dim.Value, dim.Unit, valueMM, rule.Threshold, unit),
					Location: dim.Feature,
				}, nil
			}
		}

	case RuleMaxAspectRatio:
		length, okL := spec.OverallDimensions["length"]
		width, okW := spec.OverallDimensions["width"]
		if !okL || !okW {
			return nil, nil
		}
		ratio := length.Value / math.Max(width.Value, 0.001)
		if ratio > rule.Threshold+rule.Tolerance {
			return &model.Violation{
				Rule:     rule.Name,
				Severity: rule.Severity,
				Message:  fmt.Sprintf("Aspect ratio %.2f exceeds maximum %g", ratio, rule.Threshold),
				Location: "overall dimensions",
			}, nil
		}
	}
	return nil, nil
}

func checkMaterial(spec *model.PartSpecification, rule Rule) *model.Violation {
	material := spec.MaterialName()

	switch rule.Name {
	case RuleRequireMaterialSpec:
		if rule.Flag && material == "" {
			return &model.Violation{
				Rule:     rule.Name,
				Severity: rule.Severity,
				Message:  "Material specification is required but not found",
				Location: "title block",
			}
		}

	case RuleAllowedMaterials:
		if material == "" {
			return nil
		}
		if slices.Contains(rule.Allowed, material) {
			return nil
		}
		return &model.Violation{
			Rule:     rule.Name,
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("Material '%s' not in approved list", material),
			Location: "title block",
		}
	}
	return nil
}

func checkGDT(spec *model.PartSpecification, rule Rule) *model.Violation {
	if rule.EffectiveKind() != KindNumeric {
		return nil
	}
	title := cases.Title(language.English)

	for _, gdt := range spec.GDTRequirements {
		symbol := strings.ToLower(strings.TrimSpace(gdt.SymbolType))
		if symbol == "" || !strings.EqualFold(rule.Name, "max_"+symbol) {
			continue
		}
		if gdt.Tolerance > rule.Threshold+rule.Tolerance {
			location := gdt.AppliesTo
			if location == "" {
				location = "unknown feature"
			}
			return &model.Violation{
				Rule:     rule.Name,
				Severity: rule.Severity,
				Message:  fmt.Sprintf("%s tolerance %g exceeds maximum %g", title.String(symbol), gdt.Tolerance, rule.Threshold),
				Location: location,
			}
		}
	}
	return nil
}
