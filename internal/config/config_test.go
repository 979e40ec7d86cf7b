package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/imaging"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/llm"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvMDAEnv, EnvProvider, EnvModel, EnvLogLevel, EnvMinRegionArea,
		EnvDatabaseURL, EnvAzureConnectionString,
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5000.0, *cfg.CV.MinRegionArea)
	assert.Equal(t, 50, *cfg.CV.EdgeLow)
	assert.Equal(t, 150, cfg.CV.EdgeHigh)
	assert.Equal(t, 2.0, cfg.CV.ClaheClipLimit)
	assert.Equal(t, 8, cfg.CV.ClaheTileGrid)
	assert.Equal(t, "luma", cfg.CV.Grayscale)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, SourceStatic, cfg.Reference.Source)
	assert.Equal(t, "nomic-embed-text", cfg.Reference.EmbeddingModel)
	assert.Equal(t, 3, cfg.Reference.Limit)
	assert.Equal(t, "intermediate_results", cfg.Output.IntermediateDir)
	assert.Equal(t, SinkFile, cfg.Output.Sink)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.Equal(t, "drawing-results", cfg.Output.AzureContainer)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 64, cfg.CacheSize())
	assert.Equal(t, 1, cfg.Batch.Workers)
}

func TestLoad_FileOverlayAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	writeFile(t, dir, BaseConfigFile, `
[cv]
min_region_area = 2500
grayscale = "lightness"

[llm]
provider = "ollama"
model = "llava:13b"
timeout = "90s"

[cache]
size = 0
`)
	writeFile(t, dir, "config.ci.toml", `
[cv]
edge_high = 200

[logging]
format = "json"
`)

	t.Setenv(EnvMDAEnv, "ci")
	t.Setenv(EnvModel, "bakllava")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 2500.0, *cfg.CV.MinRegionArea)
	assert.Equal(t, 200, cfg.CV.EdgeHigh)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "bakllava", cfg.LLM.Model)
	assert.Equal(t, 0, cfg.CacheSize())

	opts := cfg.VisionOptions()
	assert.Equal(t, imaging.GrayLightness, opts.GrayMode)
	assert.Equal(t, 2500.0, opts.MinRegionArea)

	llmCfg := cfg.LLMClientConfig()
	assert.Equal(t, llm.ProviderOllama, llmCfg.Provider)
	assert.Equal(t, 90*time.Second, llmCfg.Timeout)
}

func TestLoad_MinRegionAreaEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMinRegionArea, "1200")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1200.0, *cfg.CV.MinRegionArea)
}

func TestLoad_MinRegionAreaEnvInvalid(t *testing.T) {
	for _, v := range []string{"lots", "12px"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvMinRegionArea, v)

			_, err := Load(t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), EnvMinRegionArea)
		})
	}

	clearEnv(t)
	t.Setenv(EnvMinRegionArea, "-5")
	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "min_region_area must not be negative")
}

func TestLoad_ExplicitZeroes(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, BaseConfigFile, `[cv]
min_region_area = 0
edge_low = 0
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	opts := cfg.VisionOptions()
	assert.Equal(t, 0.0, opts.MinRegionArea)
	assert.Equal(t, 0, opts.EdgeLow)
	assert.Equal(t, 150, opts.EdgeHigh)
}

func TestLoad_OverlayExplicitZero(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, BaseConfigFile, `[cv]
min_region_area = 2500
edge_low = 40
`)
	writeFile(t, dir, "config.ci.toml", `[cv]
min_region_area = 0
`)
	t.Setenv(EnvMDAEnv, "ci")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.0, *cfg.CV.MinRegionArea)
	assert.Equal(t, 40, *cfg.CV.EdgeLow)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"provider", "[llm]\nprovider = \"gemini\"", "unsupported provider"},
		{"edges", "[cv]\nedge_low = 200\nedge_high = 100", "edge thresholds"},
		{"grayscale", "[cv]\ngrayscale = \"sepia\"", "grayscale"},
		{"timeout", "[llm]\ntimeout = \"soon\"", "invalid timeout"},
		{"static file", "[reference]\nenabled = true", "file required"},
		{"postgres url", "[reference]\nenabled = true\nsource = \"postgres\"", "database_url required"},
		{"azure", "[output]\nsink = \"azure\"", "azure_connection_string required"},
		{"sink", "[output]\nsink = \"s3\"", "unknown sink"},
		{"cache", "[cache]\nsize = -1", "cache"},
		{"workers", "[batch]\nworkers = -2", "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			writeFile(t, dir, BaseConfigFile, tt.content)

			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, BaseConfigFile, "[cv\nmin_region_area = ")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "mda.toml")
	require.NoError(t, os.WriteFile(path, []byte("[batch]\nworkers = 4\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Batch.Workers)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnv(t *testing.T) {
	t.Setenv(EnvMDAEnv, "")
	assert.Equal(t, "local", Env())
	t.Setenv(EnvMDAEnv, "prod")
	assert.Equal(t, "prod", Env())
}
