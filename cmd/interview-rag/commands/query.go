package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shubham119413/interview-rag/internal/logging"
	"github.com/shubham119413/interview-rag/internal/rag"
)

// NewQueryCmd constructs the `interview-rag query` command: a raw similarity
// search against the index, without answer generation.
func NewQueryCmd() *cobra.Command {
	var mode string
	var topK int

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search the vector index and print ranked matches",
		Long: `Run a similarity search against the configured vector index and print
the ranked matches with their source, chunk id, and score.

Requires a populated index — with the default in-memory backend this only
makes sense against a persistent qdrant collection:

Examples:
  INDEX_BACKEND=qdrant interview-rag query "kubernetes networking"
  INDEX_BACKEND=qdrant interview-rag query --mode summary --top-k 10 "main themes"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), rootLog)

			emb, embCfg, err := buildEmbedder(cfg, rootLog)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			index, closeIndex, err := buildIndex(ctx, cfg, embCfg.VectorSize())
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			defer closeIndex()

			retriever, err := rag.NewRetriever(emb, index)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			searchMode := rag.Mode(mode)
			if !searchMode.Valid() {
				return fmt.Errorf("query: invalid mode %q (want qa or summary)", mode)
			}

			results, err := retriever.Retrieve(ctx, args[0], searchMode, topK)
			if err != nil {
				if errors.Is(err, rag.ErrEmptyIndex) {
					return fmt.Errorf("query: the index is empty — run 'interview-rag ingest' first")
				}
				return fmt.Errorf("query: %w", err)
			}

			for i, r := range results {
				fmt.Printf("%2d. [%.4f] %s #%d\n    %s\n", i+1, r.Distance, r.Source, r.ChunkID, r.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "qa", "Retrieval profile: qa or summary")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Maximum number of results (0 uses the mode default)")

	return cmd
}
