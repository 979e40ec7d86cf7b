package reference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/llm"
)

// DefaultEmbeddingModel is the Ollama model used for reference embeddings.
const DefaultEmbeddingModel = "nomic-embed-text"

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OllamaEmbedder generates embeddings with a local Ollama server.
type OllamaEmbedder struct {
	Client     *api.Client
	Model      string
	MaxRetries int
	Timeout    time.Duration

	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

// NewOllamaEmbedder creates an embedder for host, or OLLAMA_HOST when host
// is empty.
func NewOllamaEmbedder(host, model string) (*OllamaEmbedder, error) {
	client, err := llm.NewOllamaAPIClient(host)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OllamaEmbedder{
		Client:     client,
		Model:      model,
		MaxRetries: 3,
		Timeout:    30 * time.Second,
		Backoff:    time.Second,
	}, nil
}

// Embed returns the embedding of text, retrying failed requests.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var err error
	for retries := 0; retries <= e.MaxRetries; retries++ {
		if retries > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(retries) * e.Backoff):
			}
		}

		var embedding []float64
		embedding, err = e.createEmbedding(ctx, text)
		if err == nil {
			return embedding, nil
		}
	}
	return nil, fmt.Errorf("failed to create embedding after %d retries: %w", e.MaxRetries, err)
}

func (e *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float64, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	resp, err := e.Client.Embeddings(ctx, &api.EmbeddingRequest{Model: e.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.New("empty embedding")
	}
	return resp.Embedding, nil
}
