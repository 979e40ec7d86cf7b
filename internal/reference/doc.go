// Package reference retrieves reference material (standards, design guides,
// similar drawings) that grounds the extraction prompt.
//
// StaticRetriever ranks a JSON library in memory. VectorRetriever embeds the
// query with Ollama and searches a pgvector table; Index fills that table.
package reference
