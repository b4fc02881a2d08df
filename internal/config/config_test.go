package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func Test_Load_DefaultsWhenNoFile(t *testing.T) {
	cfg, path, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), discard())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != "" {
		t.Errorf("loaded path = %q, want empty", path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Index.Backend != "memory" {
		t.Errorf("default index backend = %q, want memory", cfg.Index.Backend)
	}
	if cfg.Ingest.Workers != 2 {
		t.Errorf("default workers = %d, want 2", cfg.Ingest.Workers)
	}
}

func Test_Load_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
index:
  backend: qdrant
  qdrant:
    host: qdrant.internal
    collection: transcripts
model:
  provider: gemini
`)

	cfg, loaded, err := Load(path, discard())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != path {
		t.Errorf("loaded path = %q, want %q", loaded, path)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Index.Backend != "qdrant" || cfg.Index.Qdrant.Host != "qdrant.internal" {
		t.Errorf("qdrant settings not applied: %+v", cfg.Index)
	}
	if cfg.Model.Provider != "gemini" {
		t.Errorf("model provider = %q, want gemini", cfg.Model.Provider)
	}
	// Untouched sections keep their defaults.
	if cfg.Ingest.QueueSize != 16 {
		t.Errorf("queue size = %d, want default 16", cfg.Ingest.QueueSize)
	}
}

func Test_Load_EnvWinsOverFile(t *testing.T) {
	path := writeConfigFile(t, `
model:
  provider: gemini
embedding:
  model: from-file
`)
	t.Setenv("MODEL_PROVIDER", "openai")
	t.Setenv("EMBEDDING_MODEL", "from-env")
	t.Setenv("MODEL_MAX_TOKENS", "2048")

	cfg, _, err := Load(path, discard())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model.Provider != "openai" {
		t.Errorf("provider = %q, env var must win over file", cfg.Model.Provider)
	}
	if cfg.Embedding.Model != "from-env" {
		t.Errorf("embedding model = %q, env var must win over file", cfg.Embedding.Model)
	}
	if cfg.Model.MaxTokens != 2048 {
		t.Errorf("max tokens = %d, want 2048 from env", cfg.Model.MaxTokens)
	}
}

func Test_Load_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"unknown log level", "logging:\n  level: verbose\n"},
		{"unknown index backend", "index:\n  backend: faiss\n"},
		{"unknown model provider", "model:\n  provider: watson\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.yaml)
			if _, _, err := Load(path, discard()); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func Test_Load_IRAGConfigEnvPath(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9999\n")
	t.Setenv("IRAG_CONFIG", path)

	cfg, loaded, err := Load("", discard())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != path {
		t.Errorf("loaded path = %q, want IRAG_CONFIG path %q", loaded, path)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
}
