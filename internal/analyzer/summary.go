package analyzer

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// summaryViolations is the number of violations listed before the rest are
// collapsed into a count.
const summaryViolations = 3

// Summary returns a short Markdown report of result.
func Summary(result *model.DrawingAnalysisResult) string {
	spec := result.Specification
	if spec == nil {
		spec = model.EmptySpecification()
	}

	var b strings.Builder
	b.WriteString("## Drawing Analysis Summary\n\n")
	fmt.Fprintf(&b, "- File: %s\n", filepath.Base(result.FilePath))
	fmt.Fprintf(&b, "- Part Number: %s\n", orNotSpecified(spec.PartNumberValue()))
	fmt.Fprintf(&b, "- Material: %s\n", orNotSpecified(spec.MaterialName()))

	if result.ExtractionFailed() {
		fmt.Fprintf(&b, "\n**Extraction failed:** %s\n", result.ProcessingInfo.ExtractionError)
	}

	b.WriteString("\n### Dimensions\n\n")
	fmt.Fprintf(&b, "- Critical dimensions found: %d\n", len(spec.CriticalDimensions))
	fmt.Fprintf(&b, "- Views identified: %s\n", strings.Join(spec.ViewTypes(), ", "))
	fmt.Fprintf(&b, "- GD&T requirements: %d\n", len(spec.GDTRequirements))

	b.WriteString("\n### Compliance\n\n")
	if n := len(result.ComplianceViolations); n > 0 {
		fmt.Fprintf(&b, "Compliance Issues: %d\n\n", n)
		for _, v := range result.ComplianceViolations[:min(n, summaryViolations)] {
			fmt.Fprintf(&b, "- %s\n", v)
		}
		if n > summaryViolations {
			fmt.Fprintf(&b, "- ... and %d more\n", n-summaryViolations)
		}
	} else {
		b.WriteString("All compliance checks passed\n")
	}

	if n := len(result.RAGContext); n > 0 {
		fmt.Fprintf(&b, "\nReferenced %d similar drawings\n", n)
	}

	return b.String()
}

// SummaryHTML renders Summary as an HTML fragment.
func SummaryHTML(result *model.DrawingAnalysisResult) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(Summary(result)), &buf); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
