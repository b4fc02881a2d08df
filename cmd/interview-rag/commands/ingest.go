package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shubham119413/interview-rag/internal/logging"
	"github.com/shubham119413/interview-rag/internal/rag"
)

// NewIngestCmd constructs the `interview-rag ingest` command, which extracts,
// chunks, embeds, and indexes local files without going through the server.
func NewIngestCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest local files into the vector index",
		Long: `Extract text from local files and index it for retrieval.

Supported types: .pdf, .txt, .md, and (with a transcription endpoint
configured) .mp3, .wav, .mp4, .mov.

With the default in-memory index the result lives only for the process
lifetime — configure the qdrant backend to persist ingested documents:

  INDEX_BACKEND=qdrant interview-rag ingest notes.pdf

Examples:
  interview-rag ingest resume.pdf notes.txt
  interview-rag ingest --mode summary book.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), rootLog)
			log := rootLog

			emb, embCfg, err := buildEmbedder(cfg, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			index, closeIndex, err := buildIndex(ctx, cfg, embCfg.VectorSize())
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer closeIndex()

			store, err := rag.NewIndexStore(emb, index)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			extractors := buildExtractors(cfg)
			chunkMode := rag.Mode(mode)
			if !chunkMode.Valid() {
				return fmt.Errorf("ingest: invalid mode %q (want qa or summary)", mode)
			}

			for _, path := range args {
				ex, err := extractors.Lookup(path)
				if err != nil {
					return fmt.Errorf("ingest: %s: %w", path, err)
				}

				start := time.Now()
				text, err := ex.Extract(ctx, path, func(done, total int) {
					log.Debug("extracting",
						slog.String("file", path),
						slog.Int("done", done),
						slog.Int("total", total),
					)
				})
				if err != nil {
					return fmt.Errorf("ingest: extract %s: %w", path, err)
				}

				chunks, err := store.Store(ctx, text, path, chunkMode)
				if err != nil {
					return fmt.Errorf("ingest: index %s: %w", path, err)
				}

				log.Info("file ingested",
					slog.String("file", path),
					slog.Int("chunks", chunks),
					slog.Duration("duration", time.Since(start)),
				)
				fmt.Printf("ingested %s: %d chunks\n", path, chunks)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "qa", "Chunking profile: qa or summary")

	return cmd
}
