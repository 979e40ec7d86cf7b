package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// Provider names a vision-model backend.
type Provider string

// The closed set of supported providers.
const (
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
	ProviderOllama Provider = "ollama"
)

// Default models per provider.
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultClaudeModel = "claude-3-5-haiku-latest"
	DefaultOllamaModel = "llava:latest"
)

var (
	// ErrNotImplemented is returned by backends whose vision call does not
	// exist yet. It is always fatal and never downgraded to an empty result.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedProvider is returned for a provider outside the closed set.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMissingAPIKey is returned when a hosted provider has no credentials.
	ErrMissingAPIKey = errors.New("missing API key")
)

// ProviderError reports a failed provider call: network failure, rejected
// credentials, or a response that could not be decoded.
type ProviderError struct {
	Provider Provider
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ParseProvider validates a provider name, case-insensitively.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderOpenAI, ProviderClaude, ProviderOllama:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
}

// DefaultModel returns the model used for p when none is configured.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderClaude:
		return DefaultClaudeModel
	case ProviderOllama:
		return DefaultOllamaModel
	default:
		return DefaultOpenAIModel
	}
}

// APIKeyEnv returns the environment variable holding p's credentials, or ""
// for providers that need none.
func APIKeyEnv(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderClaude:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// Config selects and configures a backend.
type Config struct {
	Provider Provider
	Model    string

	// APIKey overrides the provider's environment variable.
	APIKey string

	// BaseURL overrides the provider endpoint. For Ollama an empty value
	// falls back to OLLAMA_HOST.
	BaseURL string

	// Timeout bounds each provider call. 0 leaves it to the caller's context.
	Timeout time.Duration
}

// Images are the encoded inputs for one extraction.
type Images struct {
	// Full is the whole drawing as a PNG data URL.
	Full string

	// TitleBlocks are title-block crops as PNG data URLs.
	TitleBlocks []string
}

// Request is one extraction call as seen by a backend.
type Request struct {
	Prompt string
	Images Images

	// Schema is the JSON schema the structured result must follow.
	Schema map[string]any
}

// Backend is the capability every provider implements: accept images and a
// prompt, return the raw structured payload conforming to the schema.
type Backend interface {
	Extract(ctx context.Context, req Request) ([]byte, error)
	Ping(ctx context.Context) error
}

// Client routes extraction calls to the configured backend and converts the
// payload into a PartSpecification.
type Client struct {
	provider Provider
	model    string
	timeout  time.Duration
	backend  Backend
	schema   map[string]any
	logger   *zap.Logger
}

// New constructs a Client for cfg. Hosted providers require an API key from
// cfg.APIKey or the provider's environment variable.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := ParseProvider(string(cfg.Provider))
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(provider)
	}
	if env := APIKeyEnv(provider); env != "" && cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(env)
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: %s not provided and %s not set", ErrMissingAPIKey, provider, env)
		}
	}

	var backend Backend
	switch provider {
	case ProviderOpenAI:
		backend = newOpenAIBackend(cfg)
	case ProviderClaude:
		backend = newClaudeBackend(cfg)
	case ProviderOllama:
		backend, err = newOllamaBackend(cfg)
		if err != nil {
			return nil, err
		}
	}

	return NewWithBackend(provider, cfg.Model, backend, cfg.Timeout, logger), nil
}

// NewWithBackend wraps an existing backend. It is the seam used by tests and
// by callers that bring their own transport.
func NewWithBackend(provider Provider, modelName string, backend Backend, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider: provider,
		model:    modelName,
		timeout:  timeout,
		backend:  backend,
		schema:   SpecificationSchema(),
		logger:   logger.Named("llm").With(zap.String("provider", string(provider)), zap.String("model", modelName)),
	}
}

// Provider returns the selected provider.
func (c *Client) Provider() Provider { return c.provider }

// Model returns the model name sent to the provider.
func (c *Client) Model() string { return c.model }

// Analyze sends the images and prompt to the backend and returns the
// sanitized specification.
//
// Provider failures are returned as *ProviderError so the caller can tell an
// outage from an empty drawing. ErrNotImplemented is returned unwrapped.
func (c *Client) Analyze(ctx context.Context, images Images, prompt string) (*model.PartSpecification, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.backend.Extract(ctx, Request{Prompt: prompt, Images: images, Schema: c.schema})
	if err != nil {
		if errors.Is(err, ErrNotImplemented) {
			return nil, err
		}
		return nil, &ProviderError{Provider: c.provider, Model: c.model, Err: err}
	}

	spec, err := DecodeSpecification(raw)
	if err != nil {
		return nil, &ProviderError{Provider: c.provider, Model: c.model, Err: err}
	}

	c.logger.Debug("extraction complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("critical_dimensions", len(spec.CriticalDimensions)),
		zap.Int("gdt_requirements", len(spec.GDTRequirements)),
	)
	return spec, nil
}

// Ping checks that the provider is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.backend.Ping(ctx); err != nil {
		return &ProviderError{Provider: c.provider, Model: c.model, Err: err}
	}
	return nil
}
