// Package generator turns retrieved context plus a question into an
// answer using the configured chat model.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/shubham119413/interview-rag/internal/budget"
)

// systemPrompt pins the model to the retrieved material so answers stay
// grounded in what was actually ingested.
const systemPrompt = "You answer questions about ingested documents and transcripts. " +
	"Base your answer only on the provided context. " +
	"If the context does not contain the answer, say so."

// Generator produces answers from retrieved chunks. It is safe for
// concurrent use.
type Generator struct {
	model model.BaseChatModel

	// maxContextTokens bounds the token budget of the assembled context.
	maxContextTokens int
}

// Config holds the generator settings.
type Config struct {
	// MaxContextTokens bounds the retrieved context passed to the model.
	// Default budget.DefaultMaxContextTokens.
	MaxContextTokens int
}

// New constructs a Generator over the given chat model.
func New(m model.BaseChatModel, cfg *Config) (*Generator, error) {
	if m == nil {
		return nil, fmt.Errorf("generator: chat model must not be nil")
	}
	maxTokens := 0
	if cfg != nil {
		maxTokens = cfg.MaxContextTokens
	}
	if maxTokens <= 0 {
		maxTokens = budget.DefaultMaxContextTokens
	}
	return &Generator{model: m, maxContextTokens: maxTokens}, nil
}

// Generate assembles the ranked chunks into a context block, trims it to
// the token budget, and asks the model to answer the question.
func (g *Generator) Generate(ctx context.Context, chunks []string, question string) (string, error) {
	kept := budget.TrimChunks(chunks, g.maxContextTokens)
	contextText := strings.Join(kept, "\n\n")

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", contextText, question)
	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	}

	out, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generator: model call failed: %w", err)
	}
	if out == nil || out.Content == "" {
		return "", fmt.Errorf("generator: model returned an empty answer")
	}
	return out.Content, nil
}
