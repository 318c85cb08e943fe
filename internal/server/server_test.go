package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/handlers"
	"github.com/akolanti/DocQA/internal/job"
	"github.com/akolanti/DocQA/internal/middleware"
	"github.com/akolanti/DocQA/internal/rag"
)

type noopRag struct{}

func (noopRag) ProcessRequest(ctx context.Context, j jobModel.Job) jobModel.Job {
	return j
}

func (noopRag) IngestDocument(ctx context.Context, j jobModel.Job) jobModel.Job {
	return j
}

func (noopRag) Ask(ctx context.Context, q string) (rag.AskResult, error) {
	return rag.AskResult{}, nil
}

func (noopRag) Search(ctx context.Context, q string, k int) ([]commonModels.Match, error) {
	return nil, nil
}

func TestNewRouter(t *testing.T) {
	jobs := job.InitJobService(job.ServiceConfig{JobStore: store.NewInMemoryJobStore()})
	h := handlers.NewHandler(jobs, noopRag{}, t.TempDir(), 3)
	mw := middleware.NewMiddleware(config.ServerSettings{AuthToken: "secret"})
	mcpCalled := false
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mcpCalled = true
		w.WriteHeader(http.StatusOK)
	})
	r := NewRouter(h, mw, mcp)

	tests := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/status/abc", "", http.StatusUnauthorized},
		{http.MethodGet, "/status/abc", "secret", http.StatusNotFound},
		{http.MethodPost, "/mcp", "", http.StatusUnauthorized},
		{http.MethodPost, "/mcp", "secret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
	if !mcpCalled {
		t.Error("mcp handler not reached")
	}
}
