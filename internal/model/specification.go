package model

// DefaultConfidence is assigned to a critical dimension whose model output
// omitted a confidence score.
const DefaultConfidence = 0.9

// Dimension is a measured quantity read from the drawing.
type Dimension struct {
	// Value is the nominal measurement.
	Value float64 `json:"value"`

	// Unit is the unit string as written on the drawing (e.g. "mm", "in").
	Unit string `json:"unit"`

	// TolerancePlus is the upper deviation, if one was given.
	TolerancePlus *float64 `json:"tolerance_plus,omitempty"`

	// ToleranceMinus is the lower deviation, if one was given.
	ToleranceMinus *float64 `json:"tolerance_minus,omitempty"`

	// Feature is a free-text description of what is measured.
	Feature string `json:"feature"`

	// Confidence is the extraction confidence in [0, 1].
	Confidence float64 `json:"confidence"`
}

// GDTSymbol is a geometric tolerancing requirement.
type GDTSymbol struct {
	SymbolType      string   `json:"symbol_type"`
	Tolerance       float64  `json:"tolerance"`
	DatumReferences []string `json:"datum_references"`
	AppliesTo       string   `json:"applies_to"`
}

// DrawingView is one depicted view of the part.
type DrawingView struct {
	// ViewType is one of top, front, side, section, detail, isometric.
	ViewType string `json:"view_type"`

	// Scale is the view scale ratio, e.g. "1:2".
	Scale *string `json:"scale,omitempty"`

	VisibleFeatures []string `json:"visible_features"`
}

// PartSpecification is the aggregate extraction result for one drawing.
type PartSpecification struct {
	PartNumber         *string              `json:"part_number"`
	Material           *string              `json:"material"`
	OverallDimensions  map[string]Dimension `json:"overall_dimensions"`
	CriticalDimensions []Dimension          `json:"critical_dimensions"`
	GDTRequirements    []GDTSymbol          `json:"gdt_requirements"`
	Views              []DrawingView        `json:"views"`
	Notes              []string             `json:"notes"`
	TitleBlockInfo     map[string]string    `json:"title_block_info"`
}

// EmptySpecification returns a specification with every field defaulted and
// every collection allocated.
func EmptySpecification() *PartSpecification {
	spec := &PartSpecification{}
	spec.FillDefaults()
	return spec
}

// FillDefaults allocates any nil collection so the specification serializes
// with empty arrays and objects. It does not touch populated fields.
func (s *PartSpecification) FillDefaults() {
	if s.OverallDimensions == nil {
		s.OverallDimensions = make(map[string]Dimension)
	}
	if s.CriticalDimensions == nil {
		s.CriticalDimensions = []Dimension{}
	}
	if s.GDTRequirements == nil {
		s.GDTRequirements = []GDTSymbol{}
	}
	if s.Views == nil {
		s.Views = []DrawingView{}
	}
	if s.Notes == nil {
		s.Notes = []string{}
	}
	if s.TitleBlockInfo == nil {
		s.TitleBlockInfo = make(map[string]string)
	}
	for i := range s.GDTRequirements {
		if s.GDTRequirements[i].DatumReferences == nil {
			s.GDTRequirements[i].DatumReferences = []string{}
		}
	}
	for i := range s.Views {
		if s.Views[i].VisibleFeatures == nil {
			s.Views[i].VisibleFeatures = []string{}
		}
	}
}

// MaterialName returns the material, or "" when absent.
func (s *PartSpecification) MaterialName() string {
	if s == nil || s.Material == nil {
		return ""
	}
	return *s.Material
}

// PartNumberValue returns the part number, or "" when absent.
func (s *PartSpecification) PartNumberValue() string {
	if s == nil || s.PartNumber == nil {
		return ""
	}
	return *s.PartNumber
}

// IsEmpty reports whether no field carries extracted data.
func (s *PartSpecification) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.PartNumberValue() == "" &&
		s.MaterialName() == "" &&
		len(s.OverallDimensions) == 0 &&
		len(s.CriticalDimensions) == 0 &&
		len(s.GDTRequirements) == 0 &&
		len(s.Views) == 0 &&
		len(s.Notes) == 0 &&
		len(s.TitleBlockInfo) == 0
}

// ViewTypes returns the view type of each view in order.
func (s *PartSpecification) ViewTypes() []string {
	types := make([]string, 0, len(s.Views))
	for _, v := range s.Views {
		types = append(types, v.ViewType)
	}
	return types
}
