package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/analyzer"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/compliance"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/config"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/logging"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/metrics"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/reference"
	"github.com/raylirui-self/mech-drawing-analyzer/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("mech-analyze %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		printUsage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var code int
	switch os.Args[1] {
	case "analyze":
		code = runAnalyze(ctx, os.Args[2:])
	case "serve":
		code = runServe(ctx, os.Args[2:])
	case "ping":
		code = runPing(ctx, os.Args[2:])
	case "index-references":
		code = runIndex(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		code = 2
	}
	os.Exit(code)
}

func printUsage() {
	fmt.Println("mech-analyze - extract specifications from mechanical drawings")
	fmt.Println()
	fmt.Println("Usage: mech-analyze <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  analyze [options] <drawing>...   Analyze one or more drawings")
	fmt.Println("  serve [options]                  Serve the analyzer as MCP tools over stdin/stdout")
	fmt.Println("  ping [options]                   Test the vision model provider connection")
	fmt.Println("  index-references [options]       Embed reference entries into PostgreSQL")
	fmt.Println("  version                          Print version information")
	fmt.Println()
	fmt.Println("Every command accepts -config <dir> (default \".\"), the directory holding")
	fmt.Println("config.toml and config.<MDA_ENV>.toml.")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  MDA_ENV, MDA_PROVIDER, MDA_MODEL, MDA_LOG_LEVEL, MDA_MIN_REGION_AREA,")
	fmt.Println("  MDA_DATABASE_URL, MDA_AZURE_CONNECTION_STRING,")
	fmt.Println("  OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_HOST")
}

// setup loads configuration and builds the logger. Logs go to stderr; stdout
// carries results.
func setup(dir string) (*config.Config, *zap.Logger) {
	cfg, err := config.Load(dir)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to create logger: %v", err)
	}
	return cfg, logger
}

func runAnalyze(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	dir := fs.String("config", ".", "configuration directory")
	rulesFile := fs.String("rules", "", "JSON rule file")
	asJSON := fs.Bool("json", false, "print full results as JSON instead of summaries")
	asHTML := fs.Bool("html", false, "print summaries as HTML")
	useRefs := fs.Bool("references", false, "add reference context to the prompt")
	saveIntermediate := fs.Bool("save-intermediate", false, "write <stem>_cv.json to the intermediate directory")
	saveResult := fs.Bool("save-result", false, "write <stem>_result.json to the result sink")
	metricsFile := fs.String("metrics", "", "write Prometheus metrics to this textfile after the run")
	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "analyze: at least one drawing path is required")
		return 2
	}

	cfg, logger := setup(*dir)
	defer logger.Sync()

	var rules compliance.RuleSet
	if *rulesFile != "" {
		var err error
		rules, err = compliance.LoadRules(*rulesFile)
		if err != nil {
			logger.Error("Failed to load rules", zap.Error(err))
			return 1
		}
	}

	a, cleanup, err := analyzer.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create analyzer", zap.Error(err))
		return 1
	}
	defer cleanup()

	opts := analyzer.AnalyzeOptions{
		UseReferences:    *useRefs,
		Rules:            rules,
		SaveIntermediate: *saveIntermediate,
		SaveResult:       *saveResult,
	}
	items := a.AnalyzeBatch(ctx, fs.Args(), opts, cfg.Batch.Workers)

	code := 0
	for _, item := range items {
		if item.Err != nil {
			logger.Error("Analysis failed", zap.String("path", item.Path), zap.Error(item.Err))
			code = 1
			continue
		}
		if err := printResult(item.Result, *asJSON, *asHTML); err != nil {
			logger.Error("Failed to print result", zap.String("path", item.Path), zap.Error(err))
			code = 1
		}
	}

	if *metricsFile != "" {
		if err := metrics.WriteTextfile(*metricsFile); err != nil {
			logger.Warn("Failed to write metrics", zap.String("path", *metricsFile), zap.Error(err))
		}
	}
	return code
}

func printResult(res *model.DrawingAnalysisResult, asJSON, asHTML bool) error {
	switch {
	case asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case asHTML:
		html, err := analyzer.SummaryHTML(res)
		if err != nil {
			return err
		}
		fmt.Println(html)
	default:
		fmt.Println(analyzer.Summary(res))
	}
	return nil
}

func runServe(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dir := fs.String("config", ".", "configuration directory")
	fs.Parse(args)

	cfg, logger := setup(*dir)
	defer logger.Sync()

	a, cleanup, err := analyzer.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create analyzer", zap.Error(err))
		return 1
	}
	defer cleanup()

	logger.Debug("MCP server starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
	)

	srv := server.New(a, Version, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Server error", zap.Error(err))
		return 1
	}
	return 0
}

func runPing(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	dir := fs.String("config", ".", "configuration directory")
	fs.Parse(args)

	cfg, logger := setup(*dir)
	defer logger.Sync()

	a, cleanup, err := analyzer.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create analyzer", zap.Error(err))
		return 1
	}
	defer cleanup()

	ext := a.Extractor()
	if err := a.Ping(ctx); err != nil {
		fmt.Printf("%s (%s): connection failed: %v\n", ext.Provider(), ext.Model(), err)
		return 1
	}
	fmt.Printf("%s (%s): connection OK\n", ext.Provider(), ext.Model())
	return 0
}

func runIndex(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("index-references", flag.ExitOnError)
	dir := fs.String("config", ".", "configuration directory")
	file := fs.String("file", "", "JSON file of reference entries (defaults to reference.file)")
	workers := fs.Int("workers", 4, "concurrent embedding requests")
	fs.Parse(args)

	cfg, logger := setup(*dir)
	defer logger.Sync()

	path := *file
	if path == "" {
		path = cfg.Reference.File
	}
	if path == "" || cfg.Reference.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "index-references: a reference file and reference.database_url are required")
		return 2
	}

	entries, err := reference.LoadEntries(path)
	if err != nil {
		logger.Error("Failed to load references", zap.Error(err))
		return 1
	}

	embedder, err := reference.NewOllamaEmbedder(cfg.Reference.OllamaHost, cfg.Reference.EmbeddingModel)
	if err != nil {
		logger.Error("Failed to create embedder", zap.Error(err))
		return 1
	}

	st, err := reference.NewStore(ctx, cfg.Reference.DatabaseURL, reference.DefaultDimensions)
	if err != nil {
		logger.Error("Failed to open reference store", zap.Error(err))
		return 1
	}
	defer st.Close()

	if err := st.Initialize(ctx); err != nil {
		logger.Error("Failed to initialize reference store", zap.Error(err))
		return 1
	}
	if err := reference.Index(ctx, st, embedder, entries, *workers, logger); err != nil {
		logger.Error("Failed to index references", zap.Error(err))
		return 1
	}
	return 0
}
