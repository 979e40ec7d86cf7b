package compliance

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedUnit is returned for a length unit outside mm, cm, in and ft.
// It aborts the check that encountered it.
var ErrUnsupportedUnit = errors.New("unsupported unit")

var mmPerUnit = map[string]float64{
	"mm": 1,
	"cm": 10,
	"in": 25.4,
	"ft": 304.8,
}

// ConvertToMM converts value in unit to millimeters. Unit matching is
// case-insensitive.
func ConvertToMM(value float64, unit string) (float64, error) {
	factor, ok := mmPerUnit[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedUnit, unit)
	}
	return value * factor, nil
}
