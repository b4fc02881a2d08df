// Package budget provides token counting and context trimming for the
// answer pipeline. Counting uses the cl100k_base BPE tokenizer when its
// vocabulary is available, and falls back to a conservative character
// heuristic (1 token ≈ 4 characters) otherwise, so offline deployments
// still get a usable estimate.
package budget

import (
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// charsPerToken is the character-to-token ratio used when the BPE
	// tokenizer is unavailable. 4 chars/token is standard for English
	// prose and code.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default budget for retrieved context
	// passed to the generator. Conservative enough to fit within
	// 8k-context models while leaving room for the question and answer.
	DefaultMaxContextTokens = 6000
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// encoding returns the shared cl100k_base tokenizer, or nil when its
// vocabulary could not be loaded.
func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return
		}
		enc = e
	})
	return enc
}

// Estimate returns the token count for s: exact when the tokenizer is
// available, heuristic otherwise.
func Estimate(s string) int {
	if s == "" {
		return 0
	}
	if e := encoding(); e != nil {
		return len(e.Encode(s, nil, nil))
	}
	n := len(s) / charsPerToken
	if n == 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// TrimChunks drops retrieved chunks from the tail until the total token
// count fits within maxTokens. Chunks arrive ranked best-first, so the
// least relevant context is sacrificed. At least one chunk is always
// kept so the generator has something to ground on.
func TrimChunks(chunks []string, maxTokens int) []string {
	if len(chunks) == 0 {
		return chunks
	}

	total := 0
	for i, c := range chunks {
		total += Estimate(c)
		if total > maxTokens && i > 0 {
			return chunks[:i]
		}
	}
	return chunks
}
