// Package compliance checks an extracted PartSpecification against design
// rules.
//
// Rules come from a JSON rule file (LoadRules) and fall into three
// categories: dimensional, material and gdt. Checker.Check returns
// structured violations; CheckDesignRules is a smaller variant that returns
// formatted messages for a flat map of numeric limits.
//
// Lengths are compared in millimeters. ConvertToMM accepts mm, cm, in and ft
// and fails with ErrUnsupportedUnit for anything else.
package compliance
