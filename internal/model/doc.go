// Package model defines the data types shared by every stage of the drawing
// analysis pipeline.
//
// The extraction types (Dimension, GDTSymbol, DrawingView, PartSpecification)
// mirror the JSON schema declared to the vision model. Field names in JSON
// tags are part of the public output format and must not change.
//
// # Zero Values
//
// Every type in this package is usable at its zero value. Model output is
// untrusted and may be partial, so a PartSpecification with no fields set is a
// valid result, and consumers must treat nil or empty collections as "no data"
// rather than as an error. EmptySpecification returns a specification whose
// collections are non-nil so that it serializes as [] and {} instead of null.
//
// # Lifecycle
//
// Extraction values are produced once per model response and are not mutated
// afterwards. Response repair happens on the raw payload before decoding (see
// package llm), never on these types.
package model
