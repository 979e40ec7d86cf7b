package compliance

import (
	"fmt"
	"math"
	"strings"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// CheckDesignRules is the message-only checker. It understands
// min_wall_thickness (mm), max_aspect_ratio and max_position_tolerance and
// reports every offending dimension, not just the first.
func CheckDesignRules(spec *model.PartSpecification, rules map[string]float64) ([]string, error) {
	if spec == nil {
		spec = model.EmptySpecification()
	}
	violations := []string{}

	if limit, ok := rules[RuleMinWallThickness]; ok {
		for _, dim := range spec.CriticalDimensions {
			if !isWallFeature(dim.Feature) {
				continue
			}
			valueMM, err := ConvertToMM(dim.Value, dim.Unit)
			if err != nil {
				return nil, err
			}
			if valueMM < limit {
				violations = append(violations, fmt.Sprintf(
					"Wall thickness %g%s (%.2fmm) below minimum %gmm", dim.Value, dim.Unit, valueMM, limit))
			}
		}
	}

	if limit, ok := rules[RuleMaxAspectRatio]; ok {
		length, okL := spec.OverallDimensions["length"]
		width, okW := spec.OverallDimensions["width"]
		if okL && okW {
			ratio := math.Inf(1)
			if width.Value > 0 {
				ratio = length.Value / width.Value
			}
			if ratio > limit {
				violations = append(violations, fmt.Sprintf("Aspect ratio %.2f exceeds maximum %g", ratio, limit))
			}
		}
	}

	if limit, ok := rules[RuleMaxPositionTolerance]; ok {
		for _, gdt := range spec.GDTRequirements {
			if strings.EqualFold(strings.TrimSpace(gdt.SymbolType), "position") && gdt.Tolerance > limit {
				violations = append(violations, fmt.Sprintf(
					"Position tolerance %g exceeds maximum %g", gdt.Tolerance, limit))
			}
		}
	}

	return violations, nil
}
