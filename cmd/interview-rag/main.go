// Command interview-rag is the entry point for the document Q&A service.
// It provides a CLI interface (via Cobra) and an HTTP server exposing the
// upload, search, and ask API.
package main

import (
	"fmt"
	"os"

	"github.com/shubham119413/interview-rag/cmd/interview-rag/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
