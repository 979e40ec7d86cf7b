package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/compliance"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/imaging"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/llm"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/metrics"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/prompt"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/reference"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/store"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/vision"
)

// Component names accepted by Replace.
const (
	ComponentCV         = "cv"
	ComponentLLM        = "llm"
	ComponentCompliance = "compliance"
	ComponentReference  = "reference"

	// ComponentRAG is an alias for ComponentReference.
	ComponentRAG = "rag"
)

var (
	// ErrUnknownComponent is returned by Replace for an unrecognized name.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrComponentContract is returned by Replace when the substitute does
	// not implement the component's interface.
	ErrComponentContract = errors.New("component does not satisfy contract")

	// ErrPingUnsupported is returned by Ping when the extractor has no
	// connection test.
	ErrPingUnsupported = errors.New("extractor does not support ping")
)

// DrawingProcessor loads a drawing and detects its regions.
type DrawingProcessor interface {
	ProcessDrawing(ctx context.Context, path string) (*vision.Result, error)
}

// Extractor turns encoded drawing images into a specification.
type Extractor interface {
	Analyze(ctx context.Context, images llm.Images, prompt string) (*model.PartSpecification, error)
	Provider() llm.Provider
	Model() string
}

// Checker evaluates compliance rules against a specification.
type Checker interface {
	Check(spec *model.PartSpecification, rules compliance.RuleSet) ([]model.Violation, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// AnalyzeOptions controls one AnalyzeDrawing call.
type AnalyzeOptions struct {
	// UseReferences enables reference retrieval when a retriever is set.
	UseReferences bool

	// Rules are checked against the extracted specification. An empty
	// rule set skips compliance checking.
	Rules compliance.RuleSet

	// SaveIntermediate writes <stem>_cv.json to the intermediate sink.
	SaveIntermediate bool

	// SaveResult writes <stem>_result.json to the result sink.
	SaveResult bool
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithReferences sets the reference retriever and the number of entries
// requested per drawing.
func WithReferences(r reference.Retriever, limit int) Option {
	return func(a *Analyzer) {
		a.retriever = r
		a.referenceLimit = limit
	}
}

// WithIntermediateSink sets where intermediate CV dumps are written.
func WithIntermediateSink(s store.Sink) Option {
	return func(a *Analyzer) {
		a.intermediate = s
	}
}

// WithResultSink sets where final results are written.
func WithResultSink(s store.Sink) Option {
	return func(a *Analyzer) {
		a.results = s
	}
}

// WithCacheSize bounds the result cache. 0 disables caching.
func WithCacheSize(n int) Option {
	return func(a *Analyzer) {
		a.cache = NewResultCache(n)
	}
}

// Analyzer runs the full pipeline for one drawing: preprocessing, optional
// reference retrieval, prompt assembly, extraction and compliance checking.
//
// Components may be swapped at runtime with Replace. An Analyzer is safe for
// concurrent use; a call in flight keeps the components it started with.
type Analyzer struct {
	mu             sync.RWMutex
	processor      DrawingProcessor
	extractor      Extractor
	checker        Checker
	retriever      reference.Retriever
	referenceLimit int

	intermediate store.Sink
	results      store.Sink
	cache        *ResultCache
	logger       *zap.Logger
}

// New returns an Analyzer over the given components. A nil logger discards
// logs.
func New(processor DrawingProcessor, extractor Extractor, checker Checker, logger *zap.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Analyzer{
		processor: processor,
		extractor: extractor,
		checker:   checker,
		cache:     NewResultCache(DefaultCacheSize),
		logger:    logger.Named("analyzer"),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type components struct {
	processor DrawingProcessor
	extractor Extractor
	checker   Checker
	retriever reference.Retriever
	limit     int
}

func (a *Analyzer) snapshot() components {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return components{
		processor: a.processor,
		extractor: a.extractor,
		checker:   a.checker,
		retriever: a.retriever,
		limit:     a.referenceLimit,
	}
}

// Replace swaps the named component. The substitute must implement the
// component's interface; only the reference retriever may be nil, which
// disables retrieval.
func (a *Analyzer) Replace(name string, component any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch strings.ToLower(name) {
	case ComponentCV:
		p, ok := component.(DrawingProcessor)
		if !ok || p == nil {
			return fmt.Errorf("%w: %s requires DrawingProcessor, got %T", ErrComponentContract, name, component)
		}
		a.processor = p
	case ComponentLLM:
		e, ok := component.(Extractor)
		if !ok || e == nil {
			return fmt.Errorf("%w: %s requires Extractor, got %T", ErrComponentContract, name, component)
		}
		a.extractor = e
	case ComponentCompliance:
		c, ok := component.(Checker)
		if !ok || c == nil {
			return fmt.Errorf("%w: %s requires Checker, got %T", ErrComponentContract, name, component)
		}
		a.checker = c
	case ComponentReference, ComponentRAG:
		if component == nil {
			a.retriever = nil
			break
		}
		r, ok := component.(reference.Retriever)
		if !ok {
			return fmt.Errorf("%w: %s requires Retriever, got %T", ErrComponentContract, name, component)
		}
		a.retriever = r
	default:
		return fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}

	a.logger.Info("component replaced", zap.String("component", name), zap.String("type", fmt.Sprintf("%T", component)))
	return nil
}

// Processor returns the current drawing processor.
func (a *Analyzer) Processor() DrawingProcessor {
	return a.snapshot().processor
}

// Checker returns the current compliance checker.
func (a *Analyzer) Checker() Checker {
	return a.snapshot().checker
}

// Extractor returns the current extractor.
func (a *Analyzer) Extractor() Extractor {
	return a.snapshot().extractor
}

// Cached returns the most recent result for path, if still cached.
func (a *Analyzer) Cached(path string) (*model.DrawingAnalysisResult, bool) {
	return a.cache.Get(path)
}

// Ping runs the extractor's connection test.
func (a *Analyzer) Ping(ctx context.Context) error {
	p, ok := a.snapshot().extractor.(pinger)
	if !ok {
		return ErrPingUnsupported
	}
	return p.Ping(ctx)
}

// AnalyzeDrawing runs the pipeline for the drawing at path.
//
// An unreadable path, an unimplemented backend, an unsupported measurement
// unit or a cancelled context returns an error and no result. Any other
// extraction failure yields a result with an empty specification and
// ProcessingInfo.ExtractionStatus set to model.ExtractionProviderError.
func (a *Analyzer) AnalyzeDrawing(ctx context.Context, path string, opts AnalyzeOptions) (*model.DrawingAnalysisResult, error) {
	start := time.Now()
	c := a.snapshot()
	runID := uuid.NewString()
	m := metrics.NewAnalysisMetrics(string(c.extractor.Provider()))
	logger := a.logger.With(zap.String("run_id", runID), zap.String("path", path))

	result, err := a.analyze(ctx, c, runID, path, opts, m, logger)
	if err != nil {
		m.RecordAnalysis(metrics.StatusFailed, time.Since(start))
		return nil, err
	}
	result.ProcessingInfo.DurationMillis = time.Since(start).Milliseconds()

	status := metrics.StatusOK
	if result.ExtractionFailed() {
		status = metrics.StatusProviderError
	}
	m.RecordAnalysis(status, time.Since(start))

	a.cache.Put(path, result)

	if opts.SaveResult && a.results != nil {
		key := stem(path) + "_result.json"
		if err := store.PutJSON(ctx, a.results, key, result); err != nil {
			logger.Warn("failed to save result", zap.Error(err))
		} else {
			logger.Debug("result saved", zap.String("location", a.results.Location(key)))
		}
	}

	logger.Info("drawing analyzed",
		zap.Int("regions", result.ProcessingInfo.CVRegionsFound),
		zap.Int("violations", len(result.ComplianceViolations)),
		zap.String("extraction_status", result.ProcessingInfo.ExtractionStatus),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, c components, runID, path string, opts AnalyzeOptions, m *metrics.AnalysisMetrics, logger *zap.Logger) (*model.DrawingAnalysisResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", imaging.ErrUnreadableImage, path, err)
	}

	cv, err := c.processor.ProcessDrawing(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("process drawing: %w", err)
	}
	m.RecordRegions(len(cv.Regions))

	if opts.SaveIntermediate && a.intermediate != nil {
		a.saveIntermediate(ctx, path, cv, logger)
	}

	var refs []model.ReferenceContext
	ragEnabled := opts.UseReferences && c.retriever != nil
	if ragEnabled {
		refs, err = c.retriever.Retrieve(ctx, reference.Query{
			Text:        strings.TrimSpace(cv.Metadata.TitleBlockText + " " + stem(path)),
			RegionTypes: cv.Metadata.RegionTypes,
			Limit:       c.limit,
		})
		if err != nil {
			logger.Warn("reference retrieval failed", zap.Error(err))
			refs = nil
		}
	}

	instructions := prompt.Build(prompt.Input{
		Regions:        cv.Regions,
		References:     refs,
		TextRules:      opts.Rules.TextRules,
		TitleBlockText: cv.Metadata.TitleBlockText,
	})

	info := model.ProcessingInfo{
		RunID:            runID,
		CVRegionsFound:   len(cv.Regions),
		RAGEnabled:       ragEnabled,
		RAGContextsUsed:  len(refs),
		LLMProvider:      string(c.extractor.Provider()),
		LLMModel:         c.extractor.Model(),
		ExtractionStatus: model.ExtractionOK,
	}

	spec, err := c.extractor.Analyze(ctx, llm.Images{
		Full:        cv.Images.Full,
		TitleBlocks: cv.Images.RegionsOfType(model.RegionTitleBlock),
	}, instructions)
	if err != nil {
		if errors.Is(err, llm.ErrNotImplemented) || ctx.Err() != nil {
			return nil, fmt.Errorf("extract specification: %w", err)
		}
		logger.Warn("extraction failed, continuing with empty specification",
			zap.String("provider", info.LLMProvider),
			zap.String("model", info.LLMModel),
			zap.Error(err),
		)
		m.RecordProviderError()
		spec = model.EmptySpecification()
		info.ExtractionStatus = model.ExtractionProviderError
		info.ExtractionError = err.Error()
	}
	if spec == nil {
		spec = model.EmptySpecification()
	}
	if info.ExtractionStatus == model.ExtractionOK && spec.IsEmpty() {
		logger.Info("extraction returned no specification data",
			zap.String("provider", info.LLMProvider),
			zap.String("model", info.LLMModel),
		)
	}

	violations := []model.Violation{}
	if !opts.Rules.IsEmpty() {
		violations, err = c.checker.Check(spec, opts.Rules)
		if err != nil {
			return nil, fmt.Errorf("check compliance: %w", err)
		}
		m.RecordViolations(violations)
		if len(violations) > 0 {
			logger.Info("violations found", zap.Int("count", len(violations)))
		}
	}

	return &model.DrawingAnalysisResult{
		FilePath:             path,
		Specification:        spec,
		ComplianceViolations: violations,
		CVMetadata:           cv.Metadata,
		RAGContext:           refs,
		ProcessingInfo:       info,
	}, nil
}

func (a *Analyzer) saveIntermediate(ctx context.Context, path string, cv *vision.Result, logger *zap.Logger) {
	key := stem(path) + "_cv.json"
	if err := store.PutJSON(ctx, a.intermediate, key, cv); err != nil {
		logger.Warn("failed to save intermediate result", zap.Error(err))
		return
	}
	logger.Debug("intermediate result saved", zap.String("location", a.intermediate.Location(key)))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
