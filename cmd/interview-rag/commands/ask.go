package commands

import (
	"errors"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/shubham119413/interview-rag/internal/generator"
	"github.com/shubham119413/interview-rag/internal/logging"
	"github.com/shubham119413/interview-rag/internal/rag"
	"github.com/shubham119413/interview-rag/internal/tracing"
)

// NewAskCmd constructs the `interview-rag ask` command, which retrieves
// context for a question and prints a grounded answer.
func NewAskCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question grounded on the ingested documents",
		Long: `Retrieve the best-matching chunks for a question and generate an answer
grounded on them with the configured chat model.

The mode controls chunking and retrieval tuning: qa for focused factual
questions, summary for broad overviews, auto to pick from the question text.

Examples:
  INDEX_BACKEND=qdrant interview-rag ask "what does the contract say about notice periods?"
  INDEX_BACKEND=qdrant interview-rag ask --mode summary "summarize the document"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), rootLog)
			question := args[0]

			handler, flush, ok := tracing.Setup(&tracing.Config{
				Host:      cfg.Tracing.Host,
				PublicKey: cfg.Tracing.PublicKey,
				SecretKey: cfg.Tracing.SecretKey,
			})
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			emb, embCfg, err := buildEmbedder(cfg, rootLog)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			index, closeIndex, err := buildIndex(ctx, cfg, embCfg.VectorSize())
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer closeIndex()

			retriever, err := rag.NewRetriever(emb, index)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			chatModel, err := buildChatModel(ctx, cfg)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise chat model: %w", err)
			}
			gen, err := generator.New(chatModel, &generator.Config{
				MaxContextTokens: cfg.Ask.MaxContextTokens,
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			askMode := rag.Mode(mode)
			if mode == "" || mode == "auto" {
				askMode = rag.RouteMode(question)
			} else if !askMode.Valid() {
				return fmt.Errorf("ask: invalid mode %q (want qa, summary, or auto)", mode)
			}

			hits, err := retriever.RetrieveHits(ctx, question, askMode, 0)
			if err != nil {
				if errors.Is(err, rag.ErrEmptyIndex) {
					return fmt.Errorf("ask: the index is empty — run 'interview-rag ingest' first")
				}
				return fmt.Errorf("ask: %w", err)
			}

			chunks := make([]string, len(hits))
			for i, h := range hits {
				chunks[i] = h.Meta.Text
			}

			answer, err := gen.Generate(ctx, chunks, question)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "auto", "Retrieval profile: qa, summary, or auto")

	return cmd
}
