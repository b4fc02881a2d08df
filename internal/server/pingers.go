package server

import (
	"context"
	"fmt"
	"net/http"
)

// pingerFunc adapts a label and a probe function to the Pinger interface.
// It lets dependencies that already expose a Ping method (the Qdrant index,
// the history store) be registered without a dedicated wrapper type.
type pingerFunc struct {
	// name is the dependency label used in readiness responses.
	name string
	// fn is the probe function.
	fn func(ctx context.Context) error
}

// NewPinger wraps a probe function as a Pinger with the given name.
func NewPinger(name string, fn func(ctx context.Context) error) Pinger {
	return &pingerFunc{name: name, fn: fn}
}

// Name returns the dependency label used in readiness responses.
func (p *pingerFunc) Name() string { return p.name }

// Ping runs the wrapped probe function.
func (p *pingerFunc) Ping(ctx context.Context) error { return p.fn(ctx) }

// HTTPPinger probes an HTTP dependency (the Ollama embedder, a transcription
// service) with a plain GET. Any response below 500 counts as reachable, so
// endpoints that return 404 for their root path still pass.
type HTTPPinger struct {
	// name is the dependency label used in readiness responses.
	name string
	// url is the URL probed on each Ping.
	url string
	// client is the HTTP client used for probes.
	client *http.Client
}

// NewHTTPPinger constructs an HTTPPinger for the given dependency name
// and probe URL.
func NewHTTPPinger(name, url string) *HTTPPinger {
	return &HTTPPinger{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: probeTimeout},
	}
}

// Name returns the dependency label used in readiness responses.
func (p *HTTPPinger) Name() string { return p.name }

// Ping issues a GET against the probe URL.
// Returns nil when the dependency answers with a non-5xx status.
func (p *HTTPPinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}
