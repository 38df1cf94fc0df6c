// Command mcbd is the memory and context retrieval core's daemon: it
// wires the SQLite-backed repositories, the selected vector store
// adapter, and the Hybrid Retrieval Engine into the mcptools tool
// surface, then serves that surface over both the stdio MCP transport
// and the JSON-RPC/HTTP bridge.
//
// Configuration is loaded from environment variables. See internal/config
// for details.
//
// Usage:
//
//	mcbd
//	mcbd version
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/marlonsc/mcb/internal/config"
	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/embeddings"
	"github.com/marlonsc/mcb/internal/entities"
	"github.com/marlonsc/mcb/internal/filehash"
	"github.com/marlonsc/mcb/internal/hybrid"
	"github.com/marlonsc/mcb/internal/httpbridge"
	"github.com/marlonsc/mcb/internal/indexing"
	"github.com/marlonsc/mcb/internal/logging"
	"github.com/marlonsc/mcb/internal/memory"
	internalqdrant "github.com/marlonsc/mcb/internal/qdrant"
	"github.com/marlonsc/mcb/internal/schema"
	"github.com/marlonsc/mcb/internal/vecstore"
	vslocal "github.com/marlonsc/mcb/internal/vecstore/local"
	vspinecone "github.com/marlonsc/mcb/internal/vecstore/pinecone"
	vsqdrant "github.com/marlonsc/mcb/internal/vecstore/qdrant"
	"github.com/marlonsc/mcb/internal/mcptools"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  mcbd           Start the mcbd daemon\n")
			fmt.Fprintf(os.Stderr, "  mcbd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatalf("mcbd error: %v", err)
	}

	log.Println("mcbd shutdown complete")
}

func printVersion() {
	fmt.Printf("mcbd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run initializes every dependency and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting mcbd",
		zap.String("vecstore_provider", cfg.VecStore.Provider),
		zap.Bool("http_bridge_enabled", cfg.McpBridge.Enabled))

	executor, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := executor.Close(); err != nil {
			logger.Warn("error closing database", zap.Error(err))
		}
	}()

	memRepo := memory.New(executor, logger)
	agents := entities.NewAgentStore(executor)
	issues := entities.NewIssueStore(executor)
	vcs := entities.NewVCSStore(executor)
	tenants := entities.NewTenantStore(executor)

	store, closeStore, err := openVecStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	if closeStore != nil {
		defer closeStore()
	}

	embedSvc := openEmbeddingService(logger)
	var embedder hybrid.EmbeddingProvider
	var docEmbedder indexing.DocumentEmbedder
	if embedSvc != nil {
		embedder = embedSvc
		docEmbedder = embedSvc
	}
	engine := hybrid.New(memRepo, store, embedder)

	hashes := filehash.New(executor, logger)
	fileIndexer := indexing.NewVectorFileIndexer(memRepo, store, docEmbedder, logger)
	indexSvc := indexing.New(hashes, fileIndexer, indexing.NewDefaultDetector(), indexing.NewGitSubmoduleCollector(), logger)

	tools := mcptools.New(memRepo, engine, agents, issues, vcs, tenants, indexSvc, logger)

	sdkServer := mcp.NewServer(&mcp.Implementation{Name: "mcbd", Version: version}, nil)
	tools.RegisterAll(sdkServer)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	// firstErr carries the first unexpected transport failure; it is
	// buffered so whichever goroutine does not win the race can still
	// send without blocking once runCtx is cancelled.
	firstErr := make(chan error, 2)

	go func() {
		logger.Info("starting stdio MCP transport")
		if err := sdkServer.Run(runCtx, &mcp.StdioTransport{}); err != nil && runCtx.Err() == nil {
			firstErr <- fmt.Errorf("stdio transport: %w", err)
			stop()
		}
	}()

	var bridge *httpbridge.Server
	if cfg.McpBridge.Enabled {
		bridge, err = httpbridge.NewServer(tools, logger, &httpbridge.Config{
			Host: cfg.McpBridge.Host,
			Port: cfg.McpBridge.Port,
		})
		if err != nil {
			return fmt.Errorf("failed to build http bridge: %w", err)
		}
		go func() {
			if err := bridge.Start(); err != nil && runCtx.Err() == nil {
				firstErr <- fmt.Errorf("http bridge: %w", err)
				stop()
			}
		}()
	}

	<-runCtx.Done()

	if bridge != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := bridge.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down http bridge", zap.Error(err))
		}
	}

	select {
	case err := <-firstErr:
		return err
	default:
		return nil
	}
}

// initLogger initializes the structured logger, matching cmd/contextd's
// telemetry-driven choice between development and production encoders.
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Observability.EnableTelemetry {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openDatabase opens the SQLite executor and applies the full schema,
// matching internal/schema's declarative tables rendered by SqliteGenerator.
func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dbexec.SQLiteExecutor, error) {
	path, err := expandHome(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}

	executor, err := dbexec.Open(path, logger)
	if err != nil {
		return nil, err
	}

	stmts := schema.SqliteGenerator{}.GenerateDDL(schema.Definition())
	if err := executor.ApplyDDL(ctx, stmts); err != nil {
		_ = executor.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("database ready", zap.String("path", path), zap.Int("ddl_statements", len(stmts)))
	return executor, nil
}

// openVecStore selects and constructs the configured vecstore.Store
// adapter. The returned close func is nil for the local and pinecone
// adapters; the local store's actor goroutine is not stopped and runs
// until the process exits.
func openVecStore(cfg *config.Config, logger *zap.Logger) (vecstore.Store, func(), error) {
	switch cfg.VecStore.Provider {
	case "local":
		return vslocal.New(cfg.VecStore.Local.Dimensions, logger), nil, nil

	case "qdrant":
		qcfg := &internalqdrant.ClientConfig{
			Host:   cfg.VecStore.Qdrant.Host,
			Port:   cfg.VecStore.Qdrant.Port,
			UseTLS: cfg.VecStore.Qdrant.UseTLS,
			APIKey: cfg.VecStore.Qdrant.APIKey.Value(),
		}
		qcfg.ApplyDefaults()
		if err := qcfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid qdrant client config: %w", err)
		}

		wrappedLogger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
		if err != nil {
			return nil, nil, fmt.Errorf("build qdrant client logger: %w", err)
		}

		client, err := internalqdrant.NewGRPCClient(qcfg, wrappedLogger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to qdrant at %s:%d: %w", qcfg.Host, qcfg.Port, err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("error closing qdrant client", zap.Error(err))
			}
		}
		return vsqdrant.New(client, cfg.VecStore.Qdrant.VectorSize), closeFn, nil

	case "pinecone":
		store := vspinecone.New(vspinecone.Config{
			APIKey:  cfg.VecStore.Pinecone.APIKey.Value(),
			Host:    cfg.VecStore.Pinecone.Host,
			Timeout: time.Duration(cfg.VecStore.Pinecone.TimeoutSec) * time.Second,
		})
		return store, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported vecstore provider: %s", cfg.VecStore.Provider)
	}
}

// openEmbeddingService builds the TEI HTTP embedding client from the
// environment (embeddings.ConfigFromEnv). Embeddings are an opaque
// collaborator: if the client configuration is rejected, mcbd logs a
// warning and returns nil. No request is sent here, so an unreachable
// endpoint only shows up on the first embedding call. The caller assigns the result to the
// hybrid.EmbeddingProvider and indexing.DocumentEmbedder interfaces
// explicitly rather than returning an interface directly here, so a
// failed Service never becomes a non-nil typed-nil interface value.
func openEmbeddingService(logger *zap.Logger) *embeddings.Service {
	svc, err := embeddings.NewService(embeddings.ConfigFromEnv())
	if err != nil {
		logger.Warn("embedding service unavailable, falling back to FTS-only search and skipping vector indexing", zap.Error(err))
		return nil
	}
	return svc
}

// expandHome resolves a leading "~" to the user's home directory,
// matching how ChromemConfig's documented default path is meant to be
// interpreted.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
