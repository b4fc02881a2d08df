// Package tracing wires optional Langfuse tracing into the eino callback
// chain so generation calls can be inspected per request.
package tracing

import (
	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// Config holds the Langfuse connection settings.
type Config struct {
	// Host is the Langfuse API host. Defaults to a local instance.
	Host string
	// PublicKey and SecretKey authenticate against Langfuse. Tracing is
	// disabled when either is empty.
	PublicKey string
	SecretKey string
}

// Setup initialises the Langfuse callback handler when keys are
// configured. Returns a flush function that must be called before
// process exit to ensure all traces are sent. If Langfuse is not
// configured, both return values are nil and tracing is silently
// disabled.
func Setup(cfg *Config) (callbacks.Handler, func(), bool) {
	if cfg == nil || cfg.PublicKey == "" || cfg.SecretKey == "" {
		return nil, nil, false
	}
	host := cfg.Host
	if host == "" {
		host = "http://localhost:3000"
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: cfg.PublicKey,
		SecretKey: cfg.SecretKey,
	})

	return handler, flusher, true
}
