package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shubham119413/interview-rag/internal/generator"
	"github.com/shubham119413/interview-rag/internal/job"
	"github.com/shubham119413/interview-rag/internal/logging"
	"github.com/shubham119413/interview-rag/internal/rag"
	"github.com/shubham119413/interview-rag/internal/server"
	"github.com/shubham119413/interview-rag/internal/tracing"
)

// NewServeCmd constructs the `interview-rag serve` command, which starts the
// HTTP server exposing the upload, search, and ask API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the interview-rag HTTP server",
		Long: `Start the interview-rag HTTP server on localhost.

The server exposes document upload (synchronous and asynchronous with
progress polling), similarity search, and grounded question answering.

Examples:
  interview-rag serve
  interview-rag serve --port 9090
  INDEX_BACKEND=qdrant interview-rag serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := rootLog
			ctx = logging.WithLogger(ctx, log)

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup(&tracing.Config{
				Host:      cfg.Tracing.Host,
				PublicKey: cfg.Tracing.PublicKey,
				SecretKey: cfg.Tracing.SecretKey,
			})
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			}

			emb, embCfg, err := buildEmbedder(cfg, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			index, closeIndex, err := buildIndex(ctx, cfg, embCfg.VectorSize())
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeIndex()
			log.Info("index ready", slog.String("backend", cfg.Index.Backend))

			store, err := rag.NewIndexStore(emb, index)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			retriever, err := rag.NewRetriever(emb, index)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			extractors := buildExtractors(cfg)

			hist, closeHistory := openHistory(cfg, log)
			defer closeHistory()

			// The chat model is optional: without one the server still
			// ingests and searches, and /api/ask returns 503.
			var gen *generator.Generator
			chatModel, err := buildChatModel(ctx, cfg)
			if err != nil {
				log.Warn("chat model unavailable, /api/ask disabled", slog.Any("error", err))
			} else {
				gen, err = generator.New(chatModel, &generator.Config{
					MaxContextTokens: cfg.Ask.MaxContextTokens,
				})
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				log.Info("generator initialised", slog.String("provider", cfg.Model.Provider))
			}

			jobDeps := job.Deps{
				Store:      store,
				Extractors: extractors,
				Registry:   prometheus.DefaultRegisterer,
				Log:        log,
			}
			if hist != nil {
				jobDeps.History = hist
			}
			jobs, err := job.New(&job.Config{
				Workers:   cfg.Ingest.Workers,
				QueueSize: cfg.Ingest.QueueSize,
				TTL:       time.Duration(cfg.Ingest.JobTTLMinutes) * time.Minute,
				UploadDir: cfg.Ingest.UploadDir,
			}, jobDeps)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer jobs.Close()

			if host == "" {
				host = cfg.Server.Host
			}
			if port == 0 {
				port = cfg.Server.Port
			}

			srv, err := server.New(&server.Deps{
				Jobs:       jobs,
				Retriever:  retriever,
				Store:      store,
				Extractors: extractors,
				Generator:  gen,
				History:    hist,
			}, &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				Pingers:   buildPingers(cfg, embCfg, index, hist),
				RateLimit: cfg.Server.RateRPS,
				RateBurst: cfg.Server.RateBurst,
				APIKey:    cfg.Server.APIKey,
				UploadDir: cfg.Ingest.UploadDir,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address to bind to (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to listen on (default from config)")

	return cmd
}
