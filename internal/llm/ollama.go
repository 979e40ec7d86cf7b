package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/imaging"
)

type ollamaBackend struct {
	client *api.Client
	model  string
}

// NewOllamaAPIClient returns an Ollama API client for baseURL, or for
// OLLAMA_HOST when baseURL is empty.
func NewOllamaAPIClient(baseURL string) (*api.Client, error) {
	if baseURL == "" {
		return api.NewClient(envconfig.Host(), http.DefaultClient), nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", baseURL, err)
	}
	return api.NewClient(u, http.DefaultClient), nil
}

func newOllamaBackend(cfg Config) (*ollamaBackend, error) {
	client, err := NewOllamaAPIClient(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &ollamaBackend{client: client, model: cfg.Model}, nil
}

// Extract sends every image with a single user turn and constrains the reply
// to the schema through the format field.
func (b *ollamaBackend) Extract(ctx context.Context, req Request) ([]byte, error) {
	urls := append([]string{req.Images.Full}, req.Images.TitleBlocks...)
	images := make([]api.ImageData, 0, len(urls))
	for _, u := range urls {
		data, err := imaging.DecodeDataURLBytes(u)
		if err != nil {
			return nil, err
		}
		images = append(images, api.ImageData(data))
	}

	format, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	text := "Analyze this mechanical drawing:"
	if len(req.Images.TitleBlocks) > 0 {
		text += fmt.Sprintf(" The last %d image(s) are title block details.", len(req.Images.TitleBlocks))
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model: b.model,
		Messages: []api.Message{
			{Role: "system", Content: req.Prompt},
			{Role: "user", Content: text, Images: images},
		},
		Stream:  &stream,
		Format:  format,
		Options: map[string]any{"temperature": 0},
	}

	var content strings.Builder
	err = b.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	return []byte(content.String()), nil
}

// Ping lists the locally installed models.
func (b *ollamaBackend) Ping(ctx context.Context) error {
	if _, err := b.client.List(ctx); err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	return nil
}
