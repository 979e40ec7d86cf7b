// Package llm extracts a PartSpecification from drawing images with a
// vision-capable language model.
//
// A Client is bound at construction to one Provider from a closed set. The
// OpenAI backend declares the specification schema as a forced tool call and
// reads the call arguments. The Ollama backend sends the images to a local
// model and constrains its reply with the schema as a structured format. The
// Claude backend returns ErrNotImplemented for extraction.
//
// Every payload passes through Sanitize before it is decoded, so shape repair
// lives in one place and can be tested without a live provider.
package llm
