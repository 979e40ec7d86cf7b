package llm

import (
	"context"
	"fmt"
)

// claudeBackend holds credentials for the Anthropic provider. Its vision call
// is not implemented.
type claudeBackend struct {
	model string
}

func newClaudeBackend(cfg Config) *claudeBackend {
	return &claudeBackend{model: cfg.Model}
}

func (b *claudeBackend) Extract(context.Context, Request) ([]byte, error) {
	return nil, fmt.Errorf("claude vision extraction (%s): %w", b.model, ErrNotImplemented)
}

// Ping reports success once the client is initialized.
func (b *claudeBackend) Ping(context.Context) error {
	return nil
}
