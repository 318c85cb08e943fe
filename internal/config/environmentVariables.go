package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD              = slog.LevelInfo
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5
	CacheSimilarityCutoff       = 0.97

	//embeddings - dimension is fixed for the lifetime of one index
	DefaultEmbeddingDimension = 768
	DefaultCollectionName     = "pydantic-docs"
	SemanticCacheCollection   = "semantic-cache"

	//pipeline defaults
	DefaultChunkSize       = 5000
	DefaultTitleBatchSize  = 8
	DefaultEmbedBatchSize  = 16
	DefaultUpsertBatchSize = 32
	DefaultTopK            = 3
	DefaultChunksPath      = "chunks.json"
	DefaultSource          = "pydantic.ai"
	DefaultIDPrefix        = "doc-"

	//title derivation token budget
	TitleMaxTotalTokens      = 512
	TitleReservedPromptToken = 30

	//every external call (embedding batch, upsert, query, llm) is bounded individually
	ExternalCallTimeout = 60 * time.Second
	AskProcessTimeout   = 90 * time.Second
	JobTimeout          = 10 * time.Minute

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	VectorStoreQdrant  = "qdrant"
	VectorStoreChromem = "chromem"

	QdrantHost             = "localhost"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 1                //2-5 is preferred for prod according to documentation
	QdrantKeepAliveTimeout = 30 * time.Second //5 * time.Minute for prod maybe- fine tune for performance

	ChromemPath = "./docqa-index"

	//providers
	EmbeddingProviderGoogle = "google"
	EmbeddingProviderOpenAI = "openai"
	LLMProviderGemini       = "gemini"
	LLMProviderOpenRouter   = "openrouter"

	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIEmbeddingModel = "text-embedding-3-small"
	OpenAIBaseURL        = "https://api.openai.com/v1"
	OpenRouterModel      = "mistralai/mistral-7b-instruct:free"
	OpenRouterBaseURL    = "https://openrouter.ai/api/v1"

	ModelTemperature float32 = 0.2

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore = 0

	RedisJobStoreTTL = 24 * time.Hour
)
