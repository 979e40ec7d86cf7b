// Package analyzer orchestrates drawing analysis.
//
// An Analyzer holds one implementation of each pipeline stage behind an
// interface:
//
//   - DrawingProcessor: loads the image, detects regions, encodes crops
//   - Extractor: sends images and prompt to a vision model
//   - Checker: evaluates compliance rules
//   - reference.Retriever: optional reference context for the prompt
//
// Any stage can be swapped at runtime with Analyzer.Replace.
//
// # Provider failures
//
// A failed extraction does not fail the run. The result carries an empty
// specification and ProcessingInfo.ExtractionStatus is "provider_error" with
// the reason in ExtractionError, so an outage can be told apart from a drawing
// with nothing to extract. An unimplemented backend is always an error.
//
// # Artifacts
//
// With AnalyzeOptions.SaveIntermediate, the regions and CV metadata are
// written as <stem>_cv.json to the intermediate sink. With SaveResult, the
// final result is written as <stem>_result.json to the result sink.
package analyzer
