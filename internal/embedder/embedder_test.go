package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew_ProviderSelection(t *testing.T) {
	t.Parallel()

	if _, err := New(&Config{Provider: "ollama"}); err != nil {
		t.Errorf("New(ollama): unexpected error: %v", err)
	}
	if _, err := New(&Config{}); err != nil {
		t.Errorf("New with empty provider should default to ollama: %v", err)
	}
	if _, err := New(&Config{Provider: "openai", APIKey: "sk-test"}); err != nil {
		t.Errorf("New(openai): unexpected error: %v", err)
	}
	if _, err := New(&Config{Provider: "openai"}); err == nil {
		t.Error("New(openai) without API key: expected error, got nil")
	}
	if _, err := New(&Config{Provider: "sentencepiece"}); err == nil {
		t.Error("New with unknown provider: expected error, got nil")
	}
}

func TestConfig_VectorSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
		want int
	}{
		{"explicit override wins", Config{Provider: "ollama", Dimensions: 384}, 384},
		{"ollama default", Config{Provider: "ollama"}, 768},
		{"empty provider defaults to ollama", Config{}, 768},
		{"openai default", Config{Provider: "openai"}, 1536},
	}
	for _, tc := range cases {
		if got := tc.cfg.VectorSize(); got != tc.want {
			t.Errorf("%s: VectorSize() = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("model = %q", req.Model)
		}
		resp := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range req.Input {
			resp.Embeddings[i] = []float32{float32(i), 1}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text"})
	vecs, err := e.Embed(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("Embed: unexpected error: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d embeddings, want 3", len(vecs))
	}
	if vecs[2][0] != 2 {
		t.Errorf("embeddings out of order: vecs[2] = %v", vecs[2])
	}
}

func TestOllamaEmbedder_Embed_SplitsLargeBatches(t *testing.T) {
	t.Parallel()

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Input) > maxBatch {
			t.Errorf("batch of %d texts exceeds maxBatch %d", len(req.Input), maxBatch)
		}
		resp := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range req.Input {
			resp.Embeddings[i] = []float32{1}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	texts := make([]string, maxBatch+10)
	for i := range texts {
		texts[i] = "chunk"
	}

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "m"})
	vecs, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed: unexpected error: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Errorf("got %d embeddings, want %d", len(vecs), len(texts))
	}
	if requests != 2 {
		t.Errorf("made %d requests, want 2", requests)
	}
}

func TestOllamaEmbedder_Embed_BackendError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Error: `model "missing" not found`})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "missing"})
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("Embed: expected error from backend, got nil")
	}
}

func TestOpenAIEmbedder_Embed_ReordersByIndex(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		// Return data out of order; the client must sort by index.
		w.Write([]byte(`{"data": [
			{"embedding": [2], "index": 1},
			{"embedding": [1], "index": 0}
		]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "text-embedding-3-small"})
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: unexpected error: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Errorf("embeddings not reordered by index: %v", vecs)
	}
}

func Test_LooksLikeChatModel(t *testing.T) {
	t.Parallel()

	for model, want := range map[string]bool{
		"nomic-embed-text":       false,
		"text-embedding-3-small": false,
		"gpt-4o":                 true,
		"LLaMA3:8b":              true,
		"mistral-7b":             true,
	} {
		if got := looksLikeChatModel(model); got != want {
			t.Errorf("looksLikeChatModel(%q) = %v, want %v", model, got, want)
		}
	}
}
