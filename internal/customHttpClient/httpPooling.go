package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/DocQA/internal/config"
)

// one transport for every outbound provider call so connections are pooled across embedder, llm and titles
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// Client returns an http.Client backed by the shared pooled transport.
// A zero timeout leaves deadlines to the caller's context.
func Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
