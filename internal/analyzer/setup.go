package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/compliance"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/config"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/llm"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/ocr"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/reference"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/store"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/vision"
)

// NewFromConfig builds an Analyzer and its components from cfg. The returned
// cleanup function releases database connections and must be called once the
// Analyzer is no longer used.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Analyzer, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanup := func() {}

	var visionOpts []vision.Option
	if cfg.OCR.Enabled {
		visionOpts = append(visionOpts, vision.WithOCR(ocr.NewTesseract(cfg.OCR.Language)))
	}
	processor := vision.NewProcessor(cfg.VisionOptions(), logger, visionOpts...)

	client, err := llm.New(cfg.LLMClientConfig(), logger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("create llm client: %w", err)
	}

	opts := []Option{
		WithCacheSize(cfg.CacheSize()),
		WithIntermediateSink(store.NewFileSink(cfg.Output.IntermediateDir)),
	}

	switch cfg.Output.Sink {
	case config.SinkAzure:
		sink, err := store.NewBlobSink(cfg.Output.AzureConnectionString, cfg.Output.AzureContainer, logger)
		if err != nil {
			return nil, cleanup, fmt.Errorf("create result sink: %w", err)
		}
		if err := sink.EnsureContainer(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("create result sink: %w", err)
		}
		opts = append(opts, WithResultSink(sink))
	default:
		opts = append(opts, WithResultSink(store.NewFileSink(cfg.Output.Dir)))
	}

	if cfg.Reference.Enabled {
		retriever, closeFn, err := newRetriever(ctx, cfg.Reference)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = closeFn
		opts = append(opts, WithReferences(retriever, cfg.Reference.Limit))
	}

	return New(processor, client, compliance.NewChecker(logger), logger, opts...), cleanup, nil
}

func newRetriever(ctx context.Context, cfg config.ReferenceConfig) (reference.Retriever, func(), error) {
	noop := func() {}

	if cfg.Source == config.SourcePostgres {
		embedder, err := reference.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel)
		if err != nil {
			return nil, noop, fmt.Errorf("create embedder: %w", err)
		}
		st, err := reference.NewStore(ctx, cfg.DatabaseURL, reference.DefaultDimensions)
		if err != nil {
			return nil, noop, fmt.Errorf("open reference store: %w", err)
		}
		return &reference.VectorRetriever{Store: st, Embedder: embedder}, st.Close, nil
	}

	r, err := reference.LoadStaticRetriever(cfg.File)
	if err != nil {
		return nil, noop, fmt.Errorf("load references: %w", err)
	}
	return r, noop, nil
}
