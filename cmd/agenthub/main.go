// agenthub is the enterprise agent hub server: an intent-routing chat
// orchestrator with a knowledge base, a market analytics pipeline, and
// report export to Google Workspace.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"

	"agenthub/internal/agents"
	"agenthub/internal/analytics"
	"agenthub/internal/config"
	"agenthub/internal/embedding"
	"agenthub/internal/export"
	"agenthub/internal/llm"
	"agenthub/internal/orchestrator"
	"agenthub/internal/rag"
	"agenthub/internal/server"
	"agenthub/internal/tools"
	"agenthub/internal/vectorindex"
)

var (
	cfgPath string
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "agenthub",
	Short: "Enterprise agent hub - intent-routed chat, analytics, and export",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments use the environment.
		_ = godotenv.Load()

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Chunk a text file and add it to the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "agenthub.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	genCfg := llm.DefaultGeminiConfig(cfg.LLM.APIKey)
	genCfg.Model = cfg.LLM.Model
	genCfg.BaseURL = cfg.LLM.BaseURL
	genCfg.Timeout = cfg.GetLLMTimeout()
	genCfg.MaxOutputTokens = cfg.LLM.MaxOutputTokens
	client := llm.NewGeminiClientWithConfig(genCfg)

	searchCfg := genCfg
	searchCfg.EnableGoogleSearch = true
	searchClient := llm.NewGeminiClientWithConfig(searchCfg)
	searcher := tools.NewGeminiSearcher(searchClient, logger)

	embedder, err := embedding.NewGenAIEngine(cfg.LLM.APIKey, cfg.Embedding.Model, "RETRIEVAL_QUERY")
	if err != nil {
		return err
	}
	defer embedder.Close()

	index, err := vectorindex.Open(cfg.Index.Path, logger)
	if err != nil {
		return err
	}
	defer index.Close()
	retriever := rag.NewRetriever(embedder, index, logger)

	var warehouse tools.TabularQuerier = unavailableWarehouse{}
	if cfg.Warehouse.DSN != "" {
		wh, err := tools.OpenWarehouse(cfg.Warehouse.DSN, logger)
		if err != nil {
			return err
		}
		defer wh.Close()
		warehouse = wh
	}

	workDir := cfg.Execution.WorkingDirectory
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	runner := tools.NewPythonRunner(cfg.Execution.Interpreter, logger,
		tools.WithWorkDir(workDir),
		tools.WithRunTimeout(cfg.GetExecutionTimeout()))

	var blobs tools.BlobStore = unavailableBlobStore{}
	if cfg.Storage.Bucket != "" {
		store, err := tools.NewS3Store(ctx, cfg.Storage.Bucket, cfg.Storage.Region, logger)
		if err != nil {
			return err
		}
		blobs = store
	}

	pipeline := analytics.NewPipeline(client, searcher, warehouse, runner, blobs, workDir, logger)

	var docsExp, sheetsExp server.Exporter = unavailableExporter{}, unavailableExporter{}
	if cfg.Export.CredentialsFile != "" {
		svcs, err := export.NewGoogleServices(ctx, option.WithCredentialsFile(cfg.Export.CredentialsFile))
		if err != nil {
			return err
		}
		docsExp = export.NewDocsExporter(svcs.Docs, svcs.Drive, logger)
		sheetsExp = export.NewSheetsExporter(svcs.Sheets, svcs.Drive, logger)
	}

	orch := orchestrator.New(orchestrator.Deps{
		Generator: client,
		Support:   agents.NewSupportAgent(retriever, client, searcher, logger),
		HR:        agents.NewHRAgent(retriever, client, searcher, logger),
		Marketing: agents.NewMarketingAgent(client),
		Admin:     agents.NewAdminAgent(client),
		General:   agents.NewGeneralAgent(client),
		Analytics: pipeline,
	}, logger)
	hub := orchestrator.NewHub(orch, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(hub, pipeline, docsExp, sheetsExp, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runIngest(ctx context.Context, path string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	embedder, err := embedding.NewGenAIEngine(cfg.LLM.APIKey, cfg.Embedding.Model, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return err
	}
	defer embedder.Close()

	index, err := vectorindex.Open(cfg.Index.Path, logger)
	if err != nil {
		return err
	}
	defer index.Close()

	chunks := chunkText(string(data), 1000)
	ingestor := rag.NewIngestor(embedder, index, logger)
	n, err := ingestor.Ingest(ctx, chunks, filepath.Base(path))
	if err != nil {
		return err
	}

	logger.Info("ingested document", zap.String("file", path), zap.Int("chunks", n))
	return nil
}

// chunkText splits text on paragraph boundaries, packing paragraphs
// together up to maxLen. A single oversized paragraph becomes its own
// chunk rather than being split mid-sentence.
func chunkText(text string, maxLen int) []string {
	var chunks []string
	var cur strings.Builder

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(para) > maxLen {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// The serve command degrades gracefully when optional backends are not
// configured: the pipeline reports the gap inline instead of the
// process refusing to start.

type unavailableWarehouse struct{}

func (unavailableWarehouse) QueryCSV(ctx context.Context, sqlQuery string) (string, error) {
	return "", fmt.Errorf("warehouse is not configured (set WAREHOUSE_DSN)")
}

type unavailableBlobStore struct{}

func (unavailableBlobStore) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	return "", fmt.Errorf("chart storage is not configured (set CHARTS_BUCKET)")
}

type unavailableExporter struct{}

func (unavailableExporter) Export(ctx context.Context, content, reportTitle, recipient string) (string, error) {
	return "", fmt.Errorf("export is not configured (set GOOGLE_APPLICATION_CREDENTIALS)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
