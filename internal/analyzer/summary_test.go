package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

func TestSummary(t *testing.T) {
	spec := model.EmptySpecification()
	spec.PartNumber = strPtr("BRK-77A")
	spec.CriticalDimensions = []model.Dimension{{Feature: "bore"}, {Feature: "wall"}}
	spec.Views = []model.DrawingView{{ViewType: "front"}, {ViewType: "top"}}
	spec.GDTRequirements = []model.GDTSymbol{{SymbolType: "position"}}

	res := &model.DrawingAnalysisResult{
		FilePath:      "/drawings/bracket.png",
		Specification: spec,
		RAGContext:    []model.ReferenceContext{{Title: "ASME Y14.5"}},
		ProcessingInfo: model.ProcessingInfo{
			ExtractionStatus: model.ExtractionOK,
		},
	}
	for i := 1; i <= 5; i++ {
		res.ComplianceViolations = append(res.ComplianceViolations, model.Violation{
			Severity: model.SeverityError,
			Message:  fmt.Sprintf("violation %d", i),
		})
	}

	got := Summary(res)

	assert.Contains(t, got, "- File: bracket.png\n")
	assert.Contains(t, got, "- Part Number: BRK-77A\n")
	assert.Contains(t, got, "- Material: Not specified\n")
	assert.Contains(t, got, "- Critical dimensions found: 2\n")
	assert.Contains(t, got, "- Views identified: front, top\n")
	assert.Contains(t, got, "- GD&T requirements: 1\n")
	assert.Contains(t, got, "Compliance Issues: 5\n")
	assert.Contains(t, got, "- [error] violation 3\n")
	assert.NotContains(t, got, "violation 4")
	assert.Contains(t, got, "- ... and 2 more\n")
	assert.Contains(t, got, "Referenced 1 similar drawings")
	assert.NotContains(t, got, "Extraction failed")
}

func TestSummary_NoViolations(t *testing.T) {
	res := &model.DrawingAnalysisResult{
		FilePath:      "part.png",
		Specification: model.EmptySpecification(),
	}

	got := Summary(res)
	assert.Contains(t, got, "All compliance checks passed")
	assert.NotContains(t, got, "Compliance Issues")
	assert.NotContains(t, got, "Referenced")
}

func TestSummary_ExtractionFailed(t *testing.T) {
	res := &model.DrawingAnalysisResult{
		FilePath: "part.png",
		ProcessingInfo: model.ProcessingInfo{
			ExtractionStatus: model.ExtractionProviderError,
			ExtractionError:  "openai gpt-4o-mini: status 401",
		},
	}

	got := Summary(res)
	assert.Contains(t, got, "**Extraction failed:** openai gpt-4o-mini: status 401")
	assert.Contains(t, got, "- Part Number: Not specified")
}

func TestSummaryHTML(t *testing.T) {
	res := &model.DrawingAnalysisResult{
		FilePath:      "part.png",
		Specification: model.EmptySpecification(),
	}

	html, err := SummaryHTML(res)
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>Drawing Analysis Summary</h2>")
	assert.Contains(t, html, "<h3>Compliance</h3>")
	assert.Contains(t, html, "<li>Material: Not specified</li>")
	assert.Contains(t, html, "<p>All compliance checks passed</p>")
}
