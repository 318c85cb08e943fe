// @title           DocQA RAG API
// @version         1.0
// @description     Asynchronous question answering over indexed documentation, plus synchronous retrieval and document ingestion.
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/handlers"
	"github.com/akolanti/DocQA/internal/job"
	"github.com/akolanti/DocQA/internal/mcpServer"
	"github.com/akolanti/DocQA/internal/middleware"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/internal/rag/embedding"
	"github.com/akolanti/DocQA/internal/rag/ingest"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/internal/rag/titles"
	"github.com/akolanti/DocQA/internal/rag/vectorDB"
	"github.com/akolanti/DocQA/internal/server"
	"github.com/akolanti/DocQA/internal/worker"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

func main() {
	var configPath, listenAddr string
	flag.StringVar(&configPath, "config", "config.yaml", "optional YAML settings file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides settings)")
	flag.Parse()

	settings, err := config.Load(configPath)
	if err != nil {
		logger_i.NewLogger("main").Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger_i.Init(settings.Log)
	logger := logger_i.NewLogger("main")
	if listenAddr != "" {
		settings.Server.ListenAddr = listenAddr
	}

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	jobStore, closeJobStore, err := store.NewJobStore(serviceContext, settings.Redis)
	if err != nil {
		logger.Error("Job store unavailable", "error", err)
		os.Exit(1)
	}
	jobService := job.InitJobService(job.ServiceConfig{BufferLimit: config.BufferLimit, JobStore: jobStore})
	logger.Info("Starting job service")

	index, err := vectorDB.New(serviceContext, settings.VectorStore)
	if err != nil {
		logger.Error("Vector store failed to initialize", "error", err)
		os.Exit(1)
	}
	provider, err := embedding.NewProvider(serviceContext, settings.Embedding)
	if err != nil {
		logger.Error("Embedding provider failed to initialize", "error", err)
		os.Exit(1)
	}
	embedder, err := embedding.NewBatcher(provider, settings.Pipeline.EmbedBatchSize,
		embedding.WithRequestsPerSecond(settings.Embedding.RequestsPerSecond))
	if err != nil {
		logger.Error("Embedding batcher failed to initialize", "error", err)
		os.Exit(1)
	}
	llmProvider, err := llm.NewProvider(serviceContext, settings.LLM)
	if err != nil {
		logger.Error("LLM provider failed to initialize", "error", err)
		os.Exit(1)
	}

	pipeline := ingest.NewPipeline(titles.NewGenerator(llmProvider, settings.Pipeline.TitleBatchSize), embedder, index, settings.Pipeline)
	if err := pipeline.EnsureCollection(serviceContext); err != nil {
		logger.Error("Could not prepare the vector collection", "error", err)
		os.Exit(1)
	}

	ragService := rag.NewService(index, llmProvider, embedder, pipeline, settings.Pipeline.TopK)

	pool := worker.NewPool(jobService, ragService)
	pool.Start()

	mcp, err := mcpServer.NewServer(ragService, settings.Pipeline.TopK)
	if err != nil {
		logger.Error("MCP server failed to initialize", "error", err)
		os.Exit(1)
	}

	h := handlers.NewHandler(jobService, ragService, "", settings.Pipeline.TopK)
	mw := middleware.NewMiddleware(settings.Server)
	srv := server.NewServer(settings.Server.ListenAddr, server.NewRouter(h, mw, mcp.HTTPHandler()))

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	go srv.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		StopWorkers:      pool.Stop,
		CloseServices: func() {
			closeExternalServices()
			if err := index.Close(); err != nil {
				logger.Error("Error closing vector store", "error", err)
			}
			if err := closeJobStore(); err != nil {
				logger.Error("Error closing job store", "error", err)
			}
		},
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			gracefulShutdown <- syscall.SIGTERM
		}
	}()

	<-stopExecution
	logger.Info("Server stopped")
}
