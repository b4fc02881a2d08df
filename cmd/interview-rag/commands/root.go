// Package commands defines all Cobra CLI commands for the interview-rag binary.
package commands

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shubham119413/interview-rag/internal/audit"
	"github.com/shubham119413/interview-rag/internal/config"
	"github.com/shubham119413/interview-rag/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// cfg is the resolved configuration, populated before any subcommand runs.
var cfg *config.Config

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// rootLog is the logger built from the resolved logging config.
var rootLog *slog.Logger

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "interview-rag",
		Short: "Document Q&A over your own files, powered by RAG",
		Long: `interview-rag ingests documents (PDF, text, audio, video) into a vector
index and answers questions grounded on the retrieved content.

Ingestion extracts text, chunks it, embeds the chunks, and stores the
vectors. Questions are answered by retrieving the best-matching chunks
and passing them as context to the configured chat model.

Configuration is layered: defaults, then a YAML config file
(~/.interview-rag/config.yaml), then environment variables.
See 'interview-rag --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load .env from the working directory. A missing file is fine.
			_ = godotenv.Load()

			bootLog := logging.New("info", "text")

			loaded, path, err := config.Load(configPath, bootLog)
			if err != nil {
				return err
			}
			cfg = loaded
			loadedConfigPath = path
			rootLog = logging.New(cfg.Logging.Level, cfg.Logging.Format)

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(rootLog, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.interview-rag/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewQueryCmd(),
		NewAskCmd(),
		NewVersionCmd(),
	)

	return root
}
