package rag

import (
	"strings"
)

// Mode is a retrieval/chunking parameter profile. ModeQA favours precision
// with small chunks and a moderate over-fetch; ModeSummary favours recall
// with larger, more overlapping chunks and a wider over-fetch.
type Mode string

const (
	// ModeQA is the precision-oriented profile for pointed questions.
	ModeQA Mode = "qa"
	// ModeSummary is the recall-oriented profile for broad questions.
	ModeSummary Mode = "summary"
)

// Valid reports whether m is a recognised mode.
func (m Mode) Valid() bool {
	return m == ModeQA || m == ModeSummary
}

// summaryCues are the question fragments that signal broad/explanatory
// intent. A question containing any of them routes to ModeSummary.
var summaryCues = []string{
	"summarize",
	"summarise",
	"overview",
	"explain",
	"elaborate",
	"detailed",
}

// RouteMode classifies a free-text question into a retrieval mode.
// This is a deterministic keyword heuristic, not a guarantee — a wrong
// classification only shifts the chunk-size and over-fetch tuning.
func RouteMode(question string) Mode {
	q := strings.ToLower(question)
	for _, cue := range summaryCues {
		if strings.Contains(q, cue) {
			return ModeSummary
		}
	}
	return ModeQA
}

// chunkParams returns the chunk size and overlap for the mode.
func (m Mode) chunkParams() (size, overlap int) {
	if m == ModeSummary {
		return 2500, 300
	}
	return 1000, 150
}

// fetchParams returns the two-phase search parameters for the mode:
// initialK candidates are fetched from the index, then the result set is
// truncated to finalK after scoring.
func (m Mode) fetchParams() (initialK, finalK int) {
	if m == ModeSummary {
		return 80, 30
	}
	return 48, 6
}
