// Package main is the ragit CLI entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/raghul-ravi/rag-it/internal/cli"
	"github.com/raghul-ravi/rag-it/internal/config"
	"github.com/raghul-ravi/rag-it/internal/embedding"
	"github.com/raghul-ravi/rag-it/internal/extract"
	"github.com/raghul-ravi/rag-it/internal/ingest"
	"github.com/raghul-ravi/rag-it/internal/keyword"
	"github.com/raghul-ravi/rag-it/internal/llm"
	"github.com/raghul-ravi/rag-it/internal/models"
	"github.com/raghul-ravi/rag-it/internal/query"
	"github.com/raghul-ravi/rag-it/internal/server"
	"github.com/raghul-ravi/rag-it/internal/storage"
	"github.com/raghul-ravi/rag-it/internal/vector"
	"github.com/raghul-ravi/rag-it/internal/watcher"
	"github.com/raghul-ravi/rag-it/pkg/utils"
)

var version = "dev"

// collectionName is the single chromem collection all chunks live in.
const collectionName = "documents"

// loadConfig resolves the configuration. An explicit --config path wins;
// otherwise ./config.yaml, then ~/.config/ragit/config.yaml, then built-in
// defaults. Returns the config and the path actually used.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, "config.yaml")
		if _, statErr := os.Stat(candidate); statErr == nil {
			cfg, loadErr := config.Load(candidate)
			return cfg, candidate, loadErr
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, ".config", "ragit", "config.yaml")
		if _, statErr := os.Stat(candidate); statErr == nil {
			cfg, loadErr := config.Load(candidate)
			return cfg, candidate, loadErr
		}
	}
	cfg, err := config.Default()
	return cfg, "(defaults)", err
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "search":
		runSearch()
	case "sources":
		runSources()
	case "remove":
		runRemove()
	case "status":
		runStatus()
	case "reset":
		runReset()
	case "serve":
		runServe()
	case "version", "--version", "-v":
		fmt.Printf("ragit version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services shared by the commands.
type Components struct {
	Config   *config.Config
	Embedder embedding.Embedder
	Store    vector.Store
	Keyword  keyword.Index
	Catalog  storage.Catalog
	Pipeline *ingest.Pipeline
}

func (c *Components) Close() {
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	embedder, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}
	store, err := vector.NewChromemStore(cfg.Storage.VectorDir, collectionName, embedder.Dimensions())
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("initialize vector store: %w", err)
	}
	// Refuse to mix vectors from different embedding models.
	if _, err := vector.ReconcileManifest(cfg.Storage.ManifestPath, embedder.Model(), embedder.Dimensions(), store.Count()); err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, err
	}
	kw, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("initialize keyword index: %w", err)
	}
	catalog, err := storage.NewSQLiteCatalog(cfg.Storage.CatalogPath)
	if err != nil {
		_ = kw.Close()
		_ = store.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("initialize catalog: %w", err)
	}
	chunker, err := ingest.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		_ = catalog.Close()
		_ = kw.Close()
		_ = store.Close()
		_ = embedder.Close()
		return nil, err
	}

	pipeOpts := []ingest.Option{ingest.WithWorkers(cfg.Ingest.Workers)}
	if debug {
		pipeOpts = append(pipeOpts, ingest.WithLogger(logger))
	}
	pipeline := ingest.NewPipeline(
		extract.NewExtractor(), chunker, embedder,
		store, kw, catalog,
		cfg.Documents.Extensions,
		pipeOpts...,
	)
	return &Components{
		Config:   cfg,
		Embedder: embedder,
		Store:    store,
		Keyword:  kw,
		Catalog:  catalog,
		Pipeline: pipeline,
	}, nil
}

// newEngine builds the query engine. The LLM provider is constructed here,
// not in initComponents, so commands that never generate answers work
// without a remote API key.
func newEngine(c *Components, logger *zap.Logger, debug bool) (*query.Engine, error) {
	provider, err := llm.New(c.Config.LLM)
	if err != nil {
		return nil, err
	}
	opts := []query.Option{}
	if debug {
		opts = append(opts, query.WithLogger(logger))
	}
	return query.NewEngine(c.Embedder, c.Store, c.Keyword, provider, c.Config.Retrieval, opts...), nil
}

// setup loads the config, builds the logger, and initializes components.
// Shared prologue of most commands; callers must Close the components and
// Sync the logger.
func setup(configPath string) (*Components, *zap.Logger, error) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	components, err := initComponents(cfg, logger, cfg.Debug)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return components, logger, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	dir := fs.String("dir", "", "documents directory (default from config)")
	force := fs.Bool("force", false, "re-ingest files even when unchanged")
	workers := fs.Int("workers", 0, "parallel documents (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fatal("%v", err)
	}
	components, logger, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	defer logger.Sync()
	defer components.Close()

	if *workers > 0 {
		components.Config.Ingest.Workers = *workers
		// Rebuild the pipeline with the overridden worker count.
		chunker, _ := ingest.NewChunker(components.Config.Chunking.Size, components.Config.Chunking.Overlap)
		components.Pipeline = ingest.NewPipeline(
			extract.NewExtractor(), chunker, components.Embedder,
			components.Store, components.Keyword, components.Catalog,
			components.Config.Documents.Extensions,
			ingest.WithWorkers(*workers),
		)
	}

	root := *dir
	if root == "" {
		root = components.Config.Documents.Dir
	}
	report, err := components.Pipeline.Run(context.Background(), root, *force)
	if err != nil {
		fatal("Ingestion failed: %v", err)
	}
	if err := cli.WriteReport(os.Stdout, report, format); err != nil {
		fatal("Output failed: %v", err)
	}
}

// argsReorder moves flags (and their values) that appear after positional
// arguments to the front so flag.Parse sees them. The flag package stops at
// the first non-flag argument, so `ragit query "question" --top-k 3` would
// otherwise leave --top-k unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuestion joins positional args with spaces so multi-word questions
// work with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// queryFlags holds the parsed flags of the query command.
type queryFlags struct {
	configPath  string
	topK        int
	source      string
	interactive bool
	hideSources bool
	output      string
}

// parseQueryArgs parses the query command line and returns the flags and the
// remaining positional arguments (the question words).
func parseQueryArgs(args []string) (*queryFlags, []string, error) {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	qf := &queryFlags{}
	fs.StringVar(&qf.configPath, "config", "", "config file path")
	fs.IntVar(&qf.topK, "top-k", 0, "number of chunks to retrieve (default from config)")
	fs.StringVar(&qf.source, "source", "", "restrict retrieval to one filename")
	fs.BoolVar(&qf.interactive, "i", false, "interactive mode: read questions from stdin")
	fs.BoolVar(&qf.interactive, "interactive", false, "interactive mode: read questions from stdin")
	fs.BoolVar(&qf.hideSources, "no-sources", false, "do not print cited sources")
	fs.StringVar(&qf.output, "output", "text", "output format: text or json")
	if err := fs.Parse(argsReorder(args)); err != nil {
		return nil, nil, err
	}
	return qf, fs.Args(), nil
}

func runQuery() {
	qf, positional, err := parseQueryArgs(os.Args[2:])
	if err != nil {
		os.Exit(2)
	}
	format, err := cli.ParseFormat(qf.output)
	if err != nil {
		fatal("%v", err)
	}
	components, logger, err := setup(qf.configPath)
	if err != nil {
		fatal("%v", err)
	}
	defer logger.Sync()
	defer components.Close()

	engine, err := newEngine(components, logger, components.Config.Debug)
	if err != nil {
		fatal("%v", err)
	}

	var filter map[string]string
	if qf.source != "" {
		filter = map[string]string{models.MetaFilename: qf.source}
	}
	ask := func(question string, showSources bool) error {
		resp, err := engine.Answer(context.Background(), &models.QueryRequest{
			Question: question,
			TopK:     qf.topK,
			Filter:   filter,
		})
		if err != nil {
			return err
		}
		return cli.WriteAnswer(os.Stdout, resp, format, showSources)
	}

	question := buildQuestion(positional)
	if !qf.interactive && question != "" {
		if err := ask(question, !qf.hideSources); err != nil {
			fatal("Query failed: %v", err)
		}
		return
	}

	// Interactive loop: one question per line until quit/exit/q or EOF.
	// "sources" toggles source display.
	showSources := !qf.hideSources
	fmt.Println("Ask questions about your documents. Type 'quit' to leave, 'sources' to toggle citations.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("? ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return
		case "sources":
			showSources = !showSources
			fmt.Printf("Sources %s.\n", map[bool]string{true: "shown", false: "hidden"}[showSources])
			continue
		}
		if err := ask(line, showSources); err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		}
	}
}

func runSearch() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	limit := fs.Int("limit", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	terms := buildQuestion(fs.Args())
	if terms == "" {
		fmt.Println("Usage: ragit search [flags] <terms>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fatal("%v", err)
	}
	components, logger, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	defer logger.Sync()
	defer components.Close()

	hits, err := components.Keyword.Search(context.Background(), terms, *limit)
	if err != nil {
		fatal("Search failed: %v", err)
	}
	if err := cli.WriteHits(os.Stdout, hits, format); err != nil {
		fatal("Output failed: %v", err)
	}
}

func runSources() {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fatal("%v", err)
	}
	components, logger, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	defer logger.Sync()
	defer components.Close()

	sources, err := components.Catalog.ListSources(context.Background())
	if err != nil {
		fatal("Listing failed: %v", err)
	}
	if err := cli.WriteSources(os.Stdout, sources, format); err != nil {
		fatal("Output failed: %v", err)
	}
}

func runRemove() {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: ragit remove [flags] <path>")
		os.Exit(1)
	}
	components, logger, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	defer logger.Sync()
	defer components.Close()

	path := fs.Arg(0)
	if err := components.Pipeline.RemoveSource(context.Background(), path); err != nil {
		fatal("Remove failed: %v", err)
	}
	abs, _ := filepath.Abs(path)
	fmt.Printf("Removed: %s\n", abs)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fatal("%v", err)
	}
	components, logger, err := setup(*configPath)
	if err != nil {
		fatal("%v", err)
	}
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	cfg := components.Config
	sourceCount, err := components.Catalog.CountSources(ctx)
	if err != nil {
		fatal("Count sources failed: %v", err)
	}
	failedCount, err := components.Catalog.CountByStatus(ctx, models.SourceStatusFailed)
	if err != nil {
		fatal("Count failed sources failed: %v", err)
	}
	chunkCount, err := components.Catalog.TotalChunks(ctx)
	if err != nil {
		fatal("Count chunks failed: %v", err)
	}
	diskBytes, diskErr := storage.DiskUsageBytes(
		cfg.Storage.VectorDir, cfg.Storage.ManifestPath,
		cfg.Storage.CatalogPath, cfg.Storage.KeywordIndexPath,
	)

	if format == cli.OutputJSON {
		status := map[string]any{
			"sources":        sourceCount,
			"failed_sources": failedCount,
			"chunks":         chunkCount,
			"vector_records": components.Store.Count(),
			"config": map[string]any{
				"documents_dir":        cfg.Documents.Dir,
				"chunk_size":           cfg.Chunking.Size,
				"chunk_overlap":        cfg.Chunking.Overlap,
				"embedding_provider":   cfg.Embedding.Provider,
				"embedding_model":      components.Embedder.Model(),
				"embedding_dimensions": components.Embedder.Dimensions(),
				"llm_provider":         cfg.LLM.Provider,
				"top_k":                cfg.Retrieval.TopK,
			},
		}
		if diskErr == nil {
			status["disk_usage_bytes"] = diskBytes
		}
		if err := cli.WriteJSON(os.Stdout, status); err != nil {
			fatal("Output failed: %v", err)
		}
		return
	}

	fmt.Printf("sources:         %d   # cataloged documents\n", sourceCount)
	fmt.Printf("failed_sources:  %d   # documents whose last ingest failed\n", failedCount)
	fmt.Printf("chunks:          %d   # stored text chunks\n", chunkCount)
	fmt.Printf("vector_records:  %d   # embeddings in the vector store\n", components.Store.Count())
	if diskErr == nil {
		fmt.Printf("disk_usage:      %d bytes\n", diskBytes)
	}
	fmt.Println()
	fmt.Println("# configuration")
	fmt.Printf("documents_dir:   %s\n", cfg.Documents.Dir)
	fmt.Printf("chunking:        size %d, overlap %d\n", cfg.Chunking.Size, cfg.Chunking.Overlap)
	fmt.Printf("embedding:       %s (%d dimensions)\n", components.Embedder.Model(), components.Embedder.Dimensions())
	fmt.Printf("llm_provider:    %s\n", cfg.LLM.Provider)
	fmt.Printf("top_k:           %d\n", cfg.Retrieval.TopK)
}

func runReset() {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatal("Failed to load config: %v", err)
	}
	targets := []string{
		cfg.Storage.VectorDir,
		cfg.Storage.ManifestPath,
		cfg.Storage.CatalogPath,
		cfg.Storage.CatalogPath + "-wal",
		cfg.Storage.CatalogPath + "-shm",
		cfg.Storage.KeywordIndexPath,
	}

	if !*yes {
		fmt.Println("This deletes all ingested data:")
		for _, t := range targets {
			if _, err := os.Stat(t); err == nil {
				fmt.Printf("  %s\n", t)
			}
		}
		fmt.Print("Type 'yes' to continue: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}
	for _, t := range targets {
		if err := os.RemoveAll(t); err != nil {
			fatal("Failed to remove %s: %v", t, err)
		}
	}
	fmt.Println("Reset complete. Run 'ragit ingest' to rebuild.")
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fatal("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatal("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedPath), zap.Bool("debug", debugMode))

	components, err := initComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	engine, err := newEngine(components, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize query engine", zap.Error(err))
	}

	// Bring the indexes up to date before watching for changes.
	if report, err := components.Pipeline.Run(context.Background(), cfg.Documents.Dir, false); err != nil {
		logger.Warn("initial ingestion failed", zap.Error(err))
	} else {
		logger.Info("initial ingestion complete",
			zap.Int("ingested", report.Ingested),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed()))
	}

	pipeline := components.Pipeline
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watch := watcher.NewWatcher(
		cfg.Documents.Dir,
		cfg.Documents.Extensions,
		func(path string) {
			if _, _, err := pipeline.IngestFile(context.Background(), path, false); err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := pipeline.RemoveSource(context.Background(), path); err != nil {
				logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watch.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}

	srv := server.NewServer(engine, pipeline, components.Catalog, components.Store, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	watchCancel()
	watch.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printUsage() {
	fmt.Println(`ragit - question answering over your documents

Usage:
  ragit ingest [flags]             Ingest the documents directory
  ragit query [flags] <question>   Ask a question (interactive with -i)
  ragit search [flags] <terms>     Keyword search over ingested chunks
  ragit sources [flags]            List ingested documents
  ragit remove [flags] <path>      Remove one document from all indexes
  ragit status [flags]             Show counters and configuration
  ragit reset [flags]              Delete all ingested data
  ragit serve [flags]              HTTP API plus directory watcher
  ragit version                    Show version
  ragit help                       Show this help

Common Flags:
  --config string    Config file path (default: ./config.yaml, then ~/.config/ragit/config.yaml)
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --dir string       Documents directory override
  --force            Re-ingest files even when unchanged
  --workers int      Documents processed in parallel

Query Flags:
  --top-k int        Number of chunks to retrieve
  --source string    Restrict retrieval to one filename
  --no-sources       Do not print cited sources
  -i, --interactive  Interactive mode (read questions from stdin)

Examples:
  ragit ingest
  ragit ingest --dir ~/Documents --force
  ragit query "What is the warranty period?"
  ragit query --source manual.pdf "How do I reset it?"
  ragit query -i
  ragit search invoice march
  ragit status --output json
  ragit reset --yes`)
}
