package model

// Severity is the importance of a compliance violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Violation is one failed compliance rule.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Location string   `json:"location"`
}

// String returns the human-readable message, prefixed with severity.
func (v Violation) String() string {
	return "[" + string(v.Severity) + "] " + v.Message
}

// ReferenceContext is one retrieved reference entry used to ground the
// extraction prompt (a standard, a similar drawing, a design guide).
type ReferenceContext struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Summary string  `json:"summary"`
	Score   float64 `json:"score,omitempty"`
}

// CVMetadata describes what the preprocessing stage found.
type CVMetadata struct {
	TotalRegions int `json:"total_regions"`

	// ImageShape is [height, width, channels].
	ImageShape [3]int `json:"image_shape"`

	// RegionTypes lists each distinct region type once, sorted.
	RegionTypes []RegionType `json:"region_types"`

	// TextMaskCoverage is the fraction of pixels set in the text mask.
	TextMaskCoverage float64 `json:"text_mask_coverage"`

	// TitleBlockText is OCR text read from title-block regions, when enabled.
	TitleBlockText string `json:"title_block_text,omitempty"`
}

// Extraction outcome values recorded in ProcessingInfo.ExtractionStatus.
const (
	ExtractionOK            = "ok"
	ExtractionProviderError = "provider_error"
)

// ProcessingInfo records how a result was produced.
type ProcessingInfo struct {
	RunID           string `json:"run_id"`
	CVRegionsFound  int    `json:"cv_regions_found"`
	RAGEnabled      bool   `json:"rag_enabled"`
	RAGContextsUsed int    `json:"rag_contexts_used"`
	LLMProvider     string `json:"llm_provider"`
	LLMModel        string `json:"llm_model"`

	// ExtractionStatus is ExtractionOK or ExtractionProviderError. An empty
	// specification with ExtractionOK means the drawing had nothing to extract.
	ExtractionStatus string `json:"extraction_status"`
	ExtractionError  string `json:"extraction_error,omitempty"`

	DurationMillis int64 `json:"duration_ms"`
}

// DrawingAnalysisResult is the output of one orchestrated run.
type DrawingAnalysisResult struct {
	FilePath             string             `json:"file_path"`
	Specification        *PartSpecification `json:"specification"`
	ComplianceViolations []Violation        `json:"compliance_violations"`
	CVMetadata           CVMetadata         `json:"cv_metadata"`
	RAGContext           []ReferenceContext `json:"rag_context,omitempty"`
	ProcessingInfo       ProcessingInfo     `json:"processing_info"`
}

// ExtractionFailed reports whether the provider failed for this run.
func (r *DrawingAnalysisResult) ExtractionFailed() bool {
	return r.ProcessingInfo.ExtractionStatus == ExtractionProviderError
}
