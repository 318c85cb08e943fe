// Package chromemDB is an embedded vector index for local runs and tests. It can persist to disk.
package chromemDB

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/philippgille/chromem-go"
)

const (
	// chromem metadata is string only, so the full metadata object is kept as JSON under one key
	metadataKey  = "metadata_json"
	dimensionKey = "dimension"
)

var errNoEmbeddingFunc = errors.New("chromem: documents must be added with a precomputed embedding")

type Store struct {
	db         *chromem.DB
	name       string
	cacheName  string
	mu         sync.RWMutex
	collection *chromem.Collection
	cache      *chromem.Collection
	dimension  int
	logger     *logger_i.Logger
}

// NewChromemStore opens a persistent DB at settings.Path, or an in-memory one when Path is empty.
func NewChromemStore(settings config.VectorStoreSettings) (*Store, error) {
	logger := logger_i.NewLogger("chromem")

	var db *chromem.DB
	if settings.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(settings.Path, false)
		if err != nil {
			logger.Error("could not open chromem db", "path", settings.Path, "error", err)
			return nil, err
		}
	}

	logger.Info("chromem store opened", "path", settings.Path, "collection", settings.Collection)
	return &Store{
		db:        db,
		name:      settings.Collection,
		cacheName: config.SemanticCacheCollection,
		logger:    logger,
	}, nil
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) CreateCollection(_ context.Context, dimension int) error {
	if s.name == "" {
		return errors.New("empty collection name")
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	meta := map[string]string{dimensionKey: strconv.Itoa(dimension)}

	collection, err := s.db.GetOrCreateCollection(s.name, meta, noEmbedding)
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.name, err)
	}
	cache, err := s.db.GetOrCreateCollection(s.cacheName, meta, noEmbedding)
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.cacheName, err)
	}

	s.mu.Lock()
	s.collection = collection
	s.cache = cache
	s.dimension = dimension
	s.mu.Unlock()
	return nil
}

func (s *Store) index() (*chromem.Collection, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return nil, 0, fmt.Errorf("collection %s not created", s.name)
	}
	return s.collection, s.dimension, nil
}

func (s *Store) UpsertBatch(ctx context.Context, records []commonModels.ChunkRecord) error {
	collection, dimension, err := s.index()
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(records))
	for _, rec := range records {
		if len(rec.Vector) != dimension {
			return fmt.Errorf("record %s: vector dimension %d, collection expects %d", rec.Id, len(rec.Vector), dimension)
		}
		doc, err := toDocument(rec)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_upsert", time.Since(start)) }()

	// AddDocument overwrites an existing id, which gives upsert semantics
	for _, doc := range docs {
		if err := collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("chromem upsert failed: %w", err)
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]commonModels.Match, error) {
	collection, _, err := s.index()
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be > 0, got %d", topK)
	}

	// degraded zero vectors normalize to NaN and break chromem's own top-K selection, so every
	// record is scored here and NaN hits are dropped before truncating
	n := collection.Count()
	if n == 0 {
		return []commonModels.Match{}, nil
	}

	start := time.Now()
	results, err := collection.QueryEmbedding(ctx, vector, n, nil, nil)
	metrics.CaptureExecutionMetrics("vector_query", time.Since(start))
	if err != nil {
		s.logger.WithTrace(ctx).Error("Error querying chromem", "error", err)
		return nil, err
	}

	ranked := make([]chromem.Result, 0, len(results))
	for _, r := range results {
		if math.IsNaN(float64(r.Similarity)) {
			continue
		}
		ranked = append(ranked, r)
	}
	slices.SortStableFunc(ranked, func(a, b chromem.Result) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	ranked = ranked[:min(topK, len(ranked))]

	matches := make([]commonModels.Match, 0, len(ranked))
	for _, r := range ranked {
		metadata, err := decodeMetadata(r.Metadata)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		matches = append(matches, commonModels.Match{
			Id:       r.ID,
			Score:    finite(float64(r.Similarity)),
			Metadata: metadata,
		})
	}
	return matches, nil
}

func (s *Store) Fetch(ctx context.Context, ids []string) (map[string]commonModels.ChunkRecord, error) {
	collection, _, err := s.index()
	if err != nil {
		return nil, err
	}

	out := make(map[string]commonModels.ChunkRecord, len(ids))
	for _, id := range ids {
		doc, err := collection.GetByID(ctx, id)
		if err != nil {
			// not found
			continue
		}
		metadata, err := decodeMetadata(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		out[id] = commonModels.ChunkRecord{
			Id:       id,
			Vector:   finiteVector(doc.Embedding),
			Metadata: metadata,
		}
	}
	return out, nil
}

func (s *Store) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	collection, _, err := s.index()
	if err != nil {
		return err
	}
	doc, err := collection.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("record %s: %w", id, err)
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("record %s: encoding metadata: %w", id, err)
	}
	doc.Metadata = map[string]string{metadataKey: string(encoded)}
	if content, ok := metadata[commonModels.MetaPageContent].(string); ok && content != "" {
		doc.Content = content
	}
	return collection.AddDocument(ctx, doc)
}

func (s *Store) Count(context.Context) (int, error) {
	collection, _, err := s.index()
	if err != nil {
		return 0, err
	}
	return collection.Count(), nil
}

func toDocument(rec commonModels.ChunkRecord) (chromem.Document, error) {
	encoded, err := json.Marshal(rec.Metadata)
	if err != nil {
		return chromem.Document{}, fmt.Errorf("record %s: encoding metadata: %w", rec.Id, err)
	}
	content, _ := rec.Metadata[commonModels.MetaPageContent].(string)
	return chromem.Document{
		ID:        rec.Id,
		Metadata:  map[string]string{metadataKey: string(encoded)},
		Embedding: rec.Vector,
		Content:   content,
	}, nil
}

func decodeMetadata(m map[string]string) (map[string]any, error) {
	out := map[string]any{}
	raw, ok := m[metadataKey]
	if !ok || raw == "" || raw == "null" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return out, nil
}

// a zero vector normalizes to NaN inside chromem
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func finiteVector(v []float32) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(finite(float64(x)))
	}
	return out
}
