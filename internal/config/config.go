// Package config loads analyzer settings from TOML files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/imaging"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/llm"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/logging"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/vision"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvMDAEnv                = "MDA_ENV"
	EnvProvider              = "MDA_PROVIDER"
	EnvModel                 = "MDA_MODEL"
	EnvLogLevel              = "MDA_LOG_LEVEL"
	EnvMinRegionArea         = "MDA_MIN_REGION_AREA"
	EnvDatabaseURL           = "MDA_DATABASE_URL"
	EnvAzureConnectionString = "MDA_AZURE_CONNECTION_STRING"
)

// Reference sources.
const (
	SourceStatic   = "static"
	SourcePostgres = "postgres"
)

// Output sinks.
const (
	SinkFile  = "file"
	SinkAzure = "azure"
)

// CVConfig holds preprocessing and region detection settings.
// MinRegionArea and EdgeLow are pointers so an explicit 0 survives defaults.
type CVConfig struct {
	MinRegionArea     *float64 `toml:"min_region_area"`
	EdgeLow           *int     `toml:"edge_low"`
	EdgeHigh          int      `toml:"edge_high"`
	ClaheClipLimit    float64  `toml:"clahe_clip_limit"`
	ClaheTileGrid     int      `toml:"clahe_tile_grid"`
	MaxImageDimension int      `toml:"max_image_dimension"`
	Grayscale         string   `toml:"grayscale"`
}

// LLMConfig selects the extraction backend.
type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Timeout  string `toml:"timeout"`
}

// OCRConfig enables title-block OCR.
type OCRConfig struct {
	Enabled  bool   `toml:"enabled"`
	Language string `toml:"language"`
}

// ReferenceConfig configures reference retrieval.
type ReferenceConfig struct {
	Enabled        bool   `toml:"enabled"`
	Source         string `toml:"source"`
	File           string `toml:"file"`
	DatabaseURL    string `toml:"database_url"`
	EmbeddingModel string `toml:"embedding_model"`
	OllamaHost     string `toml:"ollama_host"`
	Limit          int    `toml:"limit"`
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	IntermediateDir       string `toml:"intermediate_dir"`
	Sink                  string `toml:"sink"`
	Dir                   string `toml:"dir"`
	AzureConnectionString string `toml:"azure_connection_string"`
	AzureContainer        string `toml:"azure_container"`
}

// CacheConfig bounds the in-memory result cache. Size 0 disables it.
type CacheConfig struct {
	Size *int `toml:"size"`
}

// BatchConfig bounds concurrent analyses.
type BatchConfig struct {
	Workers int `toml:"workers"`
}

// Config is the root configuration.
type Config struct {
	CV        CVConfig        `toml:"cv"`
	LLM       LLMConfig       `toml:"llm"`
	OCR       OCRConfig       `toml:"ocr"`
	Reference ReferenceConfig `toml:"reference"`
	Output    OutputConfig    `toml:"output"`
	Logging   logging.Config  `toml:"logging"`
	Cache     CacheConfig     `toml:"cache"`
	Batch     BatchConfig     `toml:"batch"`
}

// Env returns the MDA_ENV value, defaulting to "local".
func Env() string {
	if env := os.Getenv(EnvMDAEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads dir/config.toml (if present), applies dir/config.<MDA_ENV>.toml
// (if present), and finalizes all values. Without any file, defaults and
// environment variables provide all configuration.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	base := filepath.Join(dir, BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a single config file and finalizes it.
func LoadFile(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	o := overlay
	if o.CV.MinRegionArea != nil {
		c.CV.MinRegionArea = o.CV.MinRegionArea
	}
	if o.CV.EdgeLow != nil {
		c.CV.EdgeLow = o.CV.EdgeLow
	}
	mergeInt(&c.CV.EdgeHigh, o.CV.EdgeHigh)
	mergeFloat(&c.CV.ClaheClipLimit, o.CV.ClaheClipLimit)
	mergeInt(&c.CV.ClaheTileGrid, o.CV.ClaheTileGrid)
	mergeInt(&c.CV.MaxImageDimension, o.CV.MaxImageDimension)
	mergeString(&c.CV.Grayscale, o.CV.Grayscale)

	mergeString(&c.LLM.Provider, o.LLM.Provider)
	mergeString(&c.LLM.Model, o.LLM.Model)
	mergeString(&c.LLM.APIKey, o.LLM.APIKey)
	mergeString(&c.LLM.BaseURL, o.LLM.BaseURL)
	mergeString(&c.LLM.Timeout, o.LLM.Timeout)

	c.OCR.Enabled = c.OCR.Enabled || o.OCR.Enabled
	mergeString(&c.OCR.Language, o.OCR.Language)

	c.Reference.Enabled = c.Reference.Enabled || o.Reference.Enabled
	mergeString(&c.Reference.Source, o.Reference.Source)
	mergeString(&c.Reference.File, o.Reference.File)
	mergeString(&c.Reference.DatabaseURL, o.Reference.DatabaseURL)
	mergeString(&c.Reference.EmbeddingModel, o.Reference.EmbeddingModel)
	mergeString(&c.Reference.OllamaHost, o.Reference.OllamaHost)
	mergeInt(&c.Reference.Limit, o.Reference.Limit)

	mergeString(&c.Output.IntermediateDir, o.Output.IntermediateDir)
	mergeString(&c.Output.Sink, o.Output.Sink)
	mergeString(&c.Output.Dir, o.Output.Dir)
	mergeString(&c.Output.AzureConnectionString, o.Output.AzureConnectionString)
	mergeString(&c.Output.AzureContainer, o.Output.AzureContainer)

	mergeString(&c.Logging.Level, o.Logging.Level)
	mergeString(&c.Logging.Format, o.Logging.Format)
	mergeString(&c.Logging.OutputPath, o.Logging.OutputPath)
	c.Logging.Development = c.Logging.Development || o.Logging.Development

	if o.Cache.Size != nil {
		c.Cache.Size = o.Cache.Size
	}
	mergeInt(&c.Batch.Workers, o.Batch.Workers)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

func (c *Config) loadDefaults() {
	defaults := vision.DefaultOptions()
	if c.CV.MinRegionArea == nil {
		area := defaults.MinRegionArea
		c.CV.MinRegionArea = &area
	}
	if c.CV.EdgeLow == nil {
		low := defaults.EdgeLow
		c.CV.EdgeLow = &low
	}
	if c.CV.EdgeHigh == 0 {
		c.CV.EdgeHigh = defaults.EdgeHigh
	}
	if c.CV.ClaheClipLimit == 0 {
		c.CV.ClaheClipLimit = defaults.ClipLimit
	}
	if c.CV.ClaheTileGrid == 0 {
		c.CV.ClaheTileGrid = defaults.TileGrid
	}
	if c.CV.Grayscale == "" {
		c.CV.Grayscale = string(imaging.GrayLuma)
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = string(llm.ProviderOpenAI)
	}

	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}

	if c.Reference.Source == "" {
		c.Reference.Source = SourceStatic
	}
	if c.Reference.EmbeddingModel == "" {
		c.Reference.EmbeddingModel = "nomic-embed-text"
	}
	if c.Reference.Limit == 0 {
		c.Reference.Limit = 3
	}

	if c.Output.IntermediateDir == "" {
		c.Output.IntermediateDir = "intermediate_results"
	}
	if c.Output.Sink == "" {
		c.Output.Sink = SinkFile
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "results"
	}
	if c.Output.AzureContainer == "" {
		c.Output.AzureContainer = "drawing-results"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Cache.Size == nil {
		size := 64
		c.Cache.Size = &size
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = 1
	}
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(EnvProvider); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvMinRegionArea); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMinRegionArea, v, err)
		}
		c.CV.MinRegionArea = &f
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Reference.DatabaseURL = v
	}
	if v := os.Getenv(EnvAzureConnectionString); v != "" {
		c.Output.AzureConnectionString = v
	}
	return nil
}

func (c *Config) validate() error {
	var errs []error

	if *c.CV.MinRegionArea < 0 {
		errs = append(errs, fmt.Errorf("cv: min_region_area must not be negative"))
	}
	if *c.CV.EdgeLow < 0 || c.CV.EdgeHigh > 255 || *c.CV.EdgeLow >= c.CV.EdgeHigh {
		errs = append(errs, fmt.Errorf("cv: edge thresholds must satisfy 0 <= edge_low < edge_high <= 255"))
	}
	if c.CV.ClaheClipLimit < 0 {
		errs = append(errs, fmt.Errorf("cv: clahe_clip_limit must not be negative"))
	}
	if c.CV.ClaheTileGrid < 1 {
		errs = append(errs, fmt.Errorf("cv: clahe_tile_grid must be at least 1"))
	}
	if c.CV.MaxImageDimension < 0 {
		errs = append(errs, fmt.Errorf("cv: max_image_dimension must not be negative"))
	}
	if _, err := imaging.ParseGrayMode(c.CV.Grayscale); err != nil {
		errs = append(errs, fmt.Errorf("cv: %w", err))
	}

	if _, err := llm.ParseProvider(c.LLM.Provider); err != nil {
		errs = append(errs, fmt.Errorf("llm: %w", err))
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("llm: invalid timeout: %w", err))
		}
	}

	if c.Reference.Enabled {
		switch c.Reference.Source {
		case SourceStatic:
			if c.Reference.File == "" {
				errs = append(errs, fmt.Errorf("reference: file required for static source"))
			}
		case SourcePostgres:
			if c.Reference.DatabaseURL == "" {
				errs = append(errs, fmt.Errorf("reference: database_url required for postgres source"))
			}
		default:
			errs = append(errs, fmt.Errorf("reference: unknown source %q", c.Reference.Source))
		}
	}
	if c.Reference.Limit < 0 {
		errs = append(errs, fmt.Errorf("reference: limit must not be negative"))
	}

	switch c.Output.Sink {
	case SinkFile:
	case SinkAzure:
		if c.Output.AzureConnectionString == "" {
			errs = append(errs, fmt.Errorf("output: azure_connection_string required for azure sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("output: unknown sink %q", c.Output.Sink))
	}

	if *c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache: size must not be negative"))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch: workers must be at least 1"))
	}

	return errors.Join(errs...)
}

// VisionOptions converts the cv section for vision.NewProcessor.
func (c *Config) VisionOptions() vision.Options {
	mode, _ := imaging.ParseGrayMode(c.CV.Grayscale)
	return vision.Options{
		MinRegionArea:     *c.CV.MinRegionArea,
		EdgeLow:           *c.CV.EdgeLow,
		EdgeHigh:          c.CV.EdgeHigh,
		ClipLimit:         c.CV.ClaheClipLimit,
		TileGrid:          c.CV.ClaheTileGrid,
		MaxImageDimension: c.CV.MaxImageDimension,
		GrayMode:          mode,
	}
}

// LLMClientConfig converts the llm section for llm.New.
func (c *Config) LLMClientConfig() llm.Config {
	provider, _ := llm.ParseProvider(c.LLM.Provider)
	timeout, _ := time.ParseDuration(c.LLM.Timeout)
	return llm.Config{
		Provider: provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
		Timeout:  timeout,
	}
}

// CacheSize returns the configured cache size.
func (c *Config) CacheSize() int {
	if c.Cache.Size == nil {
		return 0
	}
	return *c.Cache.Size
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvMDAEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func mergeFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
