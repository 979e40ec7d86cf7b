package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type openAIBackend struct {
	client *openai.Client
	model  string
}

func newOpenAIBackend(cfg Config) *openAIBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIBackend{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func openAIMessages(req Request) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.Prompt},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "Analyze this mechanical drawing:"},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: req.Images.Full}},
			},
		},
	}

	for _, tb := range req.Images.TitleBlocks {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "Title block detail:"},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: tb}},
			},
		})
	}
	return messages
}

// Extract declares the schema as a forced tool call and returns its arguments.
func (b *openAIBackend) Extract(ctx context.Context, req Request) ([]byte, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: openAIMessages(req),
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolName,
				Description: ToolDescription,
				Parameters:  req.Schema,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: ToolName},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("chat completion rejected (status %d): %w", apiErr.HTTPStatusCode, err)
		}
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("response has no choices")
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return nil, errors.New("response has no tool call")
	}
	if calls[0].Function.Name != "" && calls[0].Function.Name != ToolName {
		return nil, fmt.Errorf("unexpected tool call %q", calls[0].Function.Name)
	}

	args := calls[0].Function.Arguments
	if !json.Valid([]byte(args)) {
		return nil, fmt.Errorf("%w: tool arguments are not valid JSON", ErrParseFailed)
	}
	return []byte(args), nil
}

// Ping lists the models visible to the configured key.
func (b *openAIBackend) Ping(ctx context.Context) error {
	models, err := b.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(models.Models) == 0 {
		return errors.New("no models available")
	}
	return nil
}
