package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type LogSettings struct {
	Prod  bool   `yaml:"prod"`
	Level string `yaml:"level"`
}

type ServerSettings struct {
	ListenAddr   string `yaml:"listen_addr"`
	AuthToken    string `yaml:"-"`
	NoAuthBypass bool   `yaml:"no_auth_bypass"`
}

type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	Fallback bool   `yaml:"fallback_to_memory"` //if redis init fails, it falls back to an in-memory store
}

type EmbeddingSettings struct {
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"-"`
	BaseURL           string  `yaml:"base_url"`
	Dimension         int     `yaml:"dimension"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type LLMSettings struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"-"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
}

type VectorStoreSettings struct {
	Type       string `yaml:"type"`
	Collection string `yaml:"collection"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"-"`
	UseTLS     bool   `yaml:"use_tls"`
	Path       string `yaml:"path"`
}

type PipelineSettings struct {
	ChunkSize       int    `yaml:"chunk_size"`
	TitleBatchSize  int    `yaml:"title_batch_size"`
	EmbedBatchSize  int    `yaml:"embed_batch_size"`
	UpsertBatchSize int    `yaml:"upsert_batch_size"`
	Concurrency     int    `yaml:"concurrency"`
	TopK            int    `yaml:"top_k"`
	ChunksPath      string `yaml:"chunks_path"`
	Source          string `yaml:"source"`
	SkipTitles      bool   `yaml:"skip_titles"`
}

// Settings is the whole runtime configuration. It is built once in main and handed to constructors.
type Settings struct {
	Log         LogSettings         `yaml:"log"`
	Server      ServerSettings      `yaml:"server"`
	Redis       RedisSettings       `yaml:"redis"`
	Embedding   EmbeddingSettings   `yaml:"embedding"`
	LLM         LLMSettings         `yaml:"llm"`
	VectorStore VectorStoreSettings `yaml:"vector_store"`
	Pipeline    PipelineSettings    `yaml:"pipeline"`
}

func Defaults() *Settings {
	return &Settings{
		Log:    LogSettings{Level: "debug"},
		Server: ServerSettings{ListenAddr: ServerListenAddr},
		Redis:  RedisSettings{Addr: RedisAddr, Fallback: true},
		Embedding: EmbeddingSettings{
			Provider:  EmbeddingProviderGoogle,
			Model:     GoogleEmbeddingModel,
			Dimension: DefaultEmbeddingDimension,
		},
		LLM: LLMSettings{
			Provider:    LLMProviderGemini,
			Model:       GeminiModelName,
			Temperature: ModelTemperature,
		},
		VectorStore: VectorStoreSettings{
			Type:       VectorStoreQdrant,
			Collection: DefaultCollectionName,
			Host:       QdrantHost,
			Port:       QdrantGrpcPort,
			UseTLS:     QdrantUseTLS,
			Path:       ChromemPath,
		},
		Pipeline: PipelineSettings{
			ChunkSize:       DefaultChunkSize,
			TitleBatchSize:  DefaultTitleBatchSize,
			EmbedBatchSize:  DefaultEmbedBatchSize,
			UpsertBatchSize: DefaultUpsertBatchSize,
			Concurrency:     1,
			TopK:            DefaultTopK,
			ChunksPath:      DefaultChunksPath,
			Source:          DefaultSource,
		},
	}
}

// Load builds Settings from defaults, an optional YAML file, .env and the process environment,
// in that order of precedence (environment wins).
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	s := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	applyEnv(s)
	applyProviderDefaults(s)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func applyEnv(s *Settings) {
	setString(&s.Log.Level, "LOG_LEVEL")
	if env := os.Getenv("APP_ENV"); env != "" {
		s.Log.Prod = strings.EqualFold(env, "prod") || strings.EqualFold(env, "production")
	}

	setString(&s.Server.ListenAddr, "LISTEN_ADDR")
	setString(&s.Server.AuthToken, "AUTH_TOKEN")
	setBool(&s.Server.NoAuthBypass, "NO_AUTH_BYPASS")

	setString(&s.Redis.Addr, "REDIS_ADDR")
	setString(&s.Redis.Password, "REDIS_PASSWORD")

	setString(&s.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&s.Embedding.Model, "EMBEDDING_MODEL")
	setInt(&s.Embedding.Dimension, "EMBEDDING_DIMENSION")
	setFloat(&s.Embedding.RequestsPerSecond, "EMBEDDING_RPS")

	setString(&s.LLM.Provider, "LLM_PROVIDER")
	setString(&s.LLM.Model, "LLM_MODEL")

	setString(&s.VectorStore.Type, "VECTOR_STORE")
	setString(&s.VectorStore.Collection, "COLLECTION_NAME")
	setString(&s.VectorStore.Host, "QDRANT_HOST")
	setInt(&s.VectorStore.Port, "QDRANT_PORT")
	setString(&s.VectorStore.APIKey, "QDRANT_API_KEY")
	setString(&s.VectorStore.Path, "CHROMEM_PATH")

	setInt(&s.Pipeline.ChunkSize, "CHUNK_SIZE")
	setInt(&s.Pipeline.Concurrency, "INDEX_CONCURRENCY")
	setInt(&s.Pipeline.TopK, "TOP_K")
	setString(&s.Pipeline.ChunksPath, "CHUNKS_PATH")
	setString(&s.Pipeline.Source, "CHUNK_SOURCE")
}

func applyProviderDefaults(s *Settings) {
	switch s.Embedding.Provider {
	case EmbeddingProviderOpenAI:
		if s.Embedding.Model == "" || s.Embedding.Model == GoogleEmbeddingModel {
			s.Embedding.Model = OpenAIEmbeddingModel
		}
		if s.Embedding.BaseURL == "" {
			s.Embedding.BaseURL = OpenAIBaseURL
		}
		s.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	default:
		s.Embedding.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	switch s.LLM.Provider {
	case LLMProviderOpenRouter:
		if s.LLM.Model == "" || s.LLM.Model == GeminiModelName {
			s.LLM.Model = OpenRouterModel
		}
		if s.LLM.BaseURL == "" {
			s.LLM.BaseURL = OpenRouterBaseURL
		}
		s.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
	default:
		s.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
}

func (s *Settings) Validate() error {
	var errs []error
	if s.Pipeline.ChunkSize <= 0 {
		errs = append(errs, errors.New("pipeline.chunk_size must be > 0"))
	}
	if s.Pipeline.TitleBatchSize <= 0 || s.Pipeline.EmbedBatchSize <= 0 || s.Pipeline.UpsertBatchSize <= 0 {
		errs = append(errs, errors.New("pipeline batch sizes must be > 0"))
	}
	if s.Pipeline.TopK <= 0 {
		errs = append(errs, errors.New("pipeline.top_k must be > 0"))
	}
	if s.Pipeline.Concurrency <= 0 {
		s.Pipeline.Concurrency = 1
	}
	if s.Embedding.Dimension <= 0 {
		errs = append(errs, errors.New("embedding.dimension must be > 0"))
	}
	switch s.VectorStore.Type {
	case VectorStoreQdrant, VectorStoreChromem:
	default:
		errs = append(errs, fmt.Errorf("unknown vector_store.type %q", s.VectorStore.Type))
	}
	if s.VectorStore.Collection == "" {
		errs = append(errs, errors.New("vector_store.collection is required"))
	}
	return errors.Join(errs...)
}

func (l LogSettings) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		if l.Prod {
			return LOG_LEVEL_PROD
		}
		return slog.LevelDebug
	}
	return level
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = v
	}
}
