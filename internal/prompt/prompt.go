// Package prompt assembles the instruction text sent to the vision model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/detection"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// MaxReferences is the number of reference entries included in a prompt.
// Extra entries are dropped silently.
const MaxReferences = 3

// Base lists the extraction targets. It always opens the prompt.
const Base = `You are an expert mechanical engineer analyzing technical drawings.
Extract the following information from this mechanical drawing:

1. Part identification (number, name, material)
2. Overall dimensions (length, width, height) with units and tolerances
3. Critical dimensions with their tolerances and what they measure
4. All GD&T symbols with their tolerances and datum references
5. Different views present (top, front, side, section, etc.)
6. Any notes or special requirements
7. Title block information

Focus on precision and completeness.`

// Input is everything the prompt can mention besides the fixed targets.
type Input struct {
	// Regions are the detected layout regions. Only their types are used.
	Regions []model.Region

	// References are retrieved reference entries, best first.
	References []model.ReferenceContext

	// TextRules are free-text compliance requirements.
	TextRules []string

	// TitleBlockText is OCR output from the title block, if any.
	TitleBlockText string
}

// Build returns the instruction string for in. Sections appear in a fixed
// order: base instructions, reference context, compliance requirements,
// detected regions, then title-block text. Empty optional sections are
// omitted; the detected-regions section is always present.
func Build(in Input) string {
	var b strings.Builder
	b.WriteString(Base)

	if len(in.References) > 0 {
		b.WriteString("\n\n## Reference Context from Similar Drawings:\n")
		for i, ref := range in.References[:min(len(in.References), MaxReferences)] {
			fmt.Fprintf(&b, "\n### Reference %d:\n", i+1)
			fmt.Fprintf(&b, "- Standard: %s\n", orDefault(ref.Title, "Unknown"))
			fmt.Fprintf(&b, "- Relevance: %s\n", orDefault(ref.Content, "Unknown"))
			fmt.Fprintf(&b, "- Key specs: %s\n", orDefault(ref.Summary, "N/A"))
		}
	}

	if len(in.TextRules) > 0 {
		b.WriteString("\n\n## Compliance Requirements to Check:\n")
		for _, rule := range in.TextRules {
			fmt.Fprintf(&b, "- %s\n", rule)
		}
	}

	types := detection.RegionTypes(in.Regions)
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	b.WriteString("\n\n## Detected Regions:\n")
	fmt.Fprintf(&b, "Found %d regions: %s\n", len(in.Regions), strings.Join(names, ", "))

	if text := strings.TrimSpace(in.TitleBlockText); text != "" {
		b.WriteString("\n## Title Block Text (OCR):\n")
		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
