package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/handlers"
	"github.com/akolanti/DocQA/internal/middleware"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	http   *http.Server
	logger *logger_i.Logger
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	StopWorkers      func()
	CloseServices    func()
}

// NewRouter registers the API routes behind the middleware chain. mcpHandler may be nil.
func NewRouter(h *handlers.Handler, mw *middleware.Middleware, mcpHandler http.Handler) *chi.Mux {
	r := utils.NewRouter()

	r.Get("/health", h.GetHandler)
	r.Post("/ask", mw.Wrap(h.AskHandler))
	r.Get("/status/{id}", mw.Wrap(h.GetStatusHandler))
	r.Post("/search", mw.Wrap(h.SearchHandler))
	r.Post("/ingest", mw.Wrap(h.PostIngestHandler))
	if mcpHandler != nil {
		r.Handle("/mcp", mw.Handler(mcpHandler))
	}
	return r
}

func NewServer(listenAddr string, handler http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:         listenAddr,
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logger_i.NewLogger("server"),
	}
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Server is listening at", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "error", err, "addr", s.http.Addr)
		return err
	}
	return nil
}

// ShutDownHandler waits for a signal, drains HTTP, stops the workers and then the external services.
func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.http.SetKeepAlivesEnabled(false)

		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("Could not shutdown gracefully", "error", err)
		}

		shutdownParams.StopWorkers()
		shutdownParams.CloseServices()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Gracefully shut down")
	case <-ctx.Done():
		s.logger.Error("Forced shut down")
		os.Exit(1)
	}
	close(shutdownParams.StopExecution)
}
