package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/llmgate/llmgate/internal/adapter/cli"
	"github.com/llmgate/llmgate/internal/adapter/llm"
	"github.com/llmgate/llmgate/internal/adapter/observability"
	"github.com/llmgate/llmgate/internal/adapter/source"
	"github.com/llmgate/llmgate/internal/adapter/store/sqlite"
	"github.com/llmgate/llmgate/internal/config"
	"github.com/llmgate/llmgate/internal/usecase/scan"
	"github.com/llmgate/llmgate/internal/version"
)

// Compile-time interface checks for the wiring below.
var (
	_ cli.Gate         = (*gate)(nil)
	_ scan.Completer   = (*llm.Client)(nil)
	_ scan.RunRecorder = (*sqlite.Store)(nil)
	_ scan.FileLister  = (*source.DirLister)(nil)
	_ scan.FileLister  = (*source.StagedLister)(nil)
)

func main() {
	err := run()
	switch {
	case err == nil, errors.Is(err, cli.ErrVersionRequested):
		return
	case errors.Is(err, cli.ErrFindingsDetected):
		// The driver already printed the findings and the verdict.
		os.Exit(1)
	default:
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "llmgate",
		EnvPrefix:   "LLMGATE",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Gate: &gate{cfg: cfg},
		Defaults: cli.Defaults{
			CodeDir:         cfg.Scan.CodeDir,
			Endpoint:        cfg.Endpoint.URL,
			Timeout:         cfg.Endpoint.Timeout,
			ChunkSize:       cfg.Scan.ChunkSize,
			SemgrepReport:   cfg.Reports.Semgrep,
			SonarqubeReport: cfg.Reports.Sonarqube,
			Staged:          cfg.Scan.Staged,
		},
		Version: version.Value(),
	})

	return root.ExecuteContext(ctx)
}

// gate builds and runs one scan from a CLI request. Construction happens per
// request so flag overrides (endpoint, timeout, chunk size) reach the client
// without process-level mutation.
type gate struct {
	cfg config.Config
}

// Scan implements cli.Gate.
func (g *gate) Scan(ctx context.Context, req cli.ScanRequest) (scan.Result, error) {
	cfg := g.cfg
	if req.ConfigFile != "" {
		loaded, err := config.Load(config.LoaderOptions{ConfigFile: req.ConfigFile})
		if err != nil {
			return scan.Result{}, fmt.Errorf("config load failed: %w", err)
		}
		cfg = loaded
	}
	cfg = applyRequest(cfg, req)

	if err := cfg.Validate(); err != nil {
		return scan.Result{}, fmt.Errorf("invalid configuration: %w", err)
	}

	client := llm.NewClient(cfg.Endpoint.URL, llm.Params{
		MaxTokens:     cfg.LLM.MaxTokens,
		Temperature:   cfg.LLM.Temperature,
		TopP:          cfg.LLM.TopP,
		TopK:          cfg.LLM.TopK,
		RepeatLastN:   cfg.LLM.RepeatLastN,
		RepeatPenalty: cfg.LLM.RepeatPenalty,
	})
	client.SetMaxRetries(cfg.Endpoint.MaxRetries)
	client.SetAdapter(responseAdapter(cfg.Endpoint.Style))
	if timeout, err := cfg.EndpointTimeout(); err == nil && timeout > 0 {
		client.SetTimeout(timeout)
	}
	logger := observability.NewLogger(observability.Options{
		Enabled: cfg.Logging.Enabled,
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
	})
	if logger != nil {
		client.SetLogger(logger)
	}

	var lister scan.FileLister = source.NewDirLister()
	if cfg.Scan.Staged {
		lister = source.NewStagedLister(cfg.Scan.CodeDir)
	}

	var recorder scan.RunRecorder
	if cfg.Store.Enabled {
		store, err := openStore(cfg.Store.Path)
		if err != nil {
			warnStoreInit(ctx, logger, cfg.Store.Path, err)
		} else {
			defer store.Close()
			recorder = store
		}
	}

	driver := scan.NewDriver(
		scan.DriverConfig{
			CodeDir:         cfg.Scan.CodeDir,
			ChunkSize:       cfg.Scan.ChunkSize,
			SemgrepReport:   cfg.Reports.Semgrep,
			SonarqubeReport: cfg.Reports.Sonarqube,
		},
		scan.DriverDeps{
			Analyzer:  scan.NewAnalyzer(scan.NewPromptBuilder(cfg.LLM.MaxTokens), client),
			Lister:    lister,
			ReadLines: source.ReadLines,
			Recorder:  recorder,
			Out:       os.Stdout,
		},
	)
	res, err := driver.Run(ctx)
	if err == nil && logger != nil {
		logger.LogInfo(ctx, "scan finished", map[string]interface{}{
			"code_dir": cfg.Scan.CodeDir,
			"files":    res.Files,
			"chunks":   res.Chunks,
			"findings": res.Findings,
			"blocked":  res.Blocked,
		})
	}
	return res, err
}

// warnStoreInit reports a history store that could not be opened. The scan
// still runs; recording is best effort.
func warnStoreInit(ctx context.Context, logger llm.Logger, path string, err error) {
	if logger != nil {
		logger.LogWarning(ctx, "failed to initialize scan history store", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	log.Printf("warning: failed to initialize store at %s: %v", path, err)
}

// applyRequest overlays the explicitly set CLI values onto the configuration.
// Unset request fields leave the configuration untouched so an explicit
// config file keeps its values.
func applyRequest(cfg config.Config, req cli.ScanRequest) config.Config {
	if req.CodeDir != "" {
		cfg.Scan.CodeDir = req.CodeDir
	}
	if req.Endpoint != "" {
		cfg.Endpoint.URL = req.Endpoint
	}
	if req.Timeout != "" {
		cfg.Endpoint.Timeout = req.Timeout
	}
	if req.ChunkSize > 0 {
		cfg.Scan.ChunkSize = req.ChunkSize
	}
	if req.SemgrepReport != "" {
		cfg.Reports.Semgrep = req.SemgrepReport
	}
	if req.SonarqubeReport != "" {
		cfg.Reports.Sonarqube = req.SonarqubeReport
	}
	if req.Staged != nil {
		cfg.Scan.Staged = *req.Staged
	}
	return cfg
}

// responseAdapter selects the envelope adapter for the configured server
// style. Validate has already rejected unknown styles.
func responseAdapter(style string) llm.ResponseAdapter {
	if style == "chat" {
		return llm.NewChatAdapter()
	}
	return llm.NewCompletionsAdapter()
}

func openStore(path string) (*sqlite.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return sqlite.NewStore(path)
}

func defaultConfigPaths() []string {
	paths := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "llmgate"))
	}
	return paths
}
