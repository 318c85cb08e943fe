package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payload key holding the chunk id; qdrant point ids must be UUIDs or integers
const recordIDKey = "record_id"

type ClientHolder struct {
	QObj            *qdrant.Client
	collection      string
	cacheCollection string
	logger          *logger_i.Logger
}

func NewQdrantStore(ctx context.Context, settings config.VectorStoreSettings) (*ClientHolder, error) {
	logger := logger_i.NewLogger("Qdrant")

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     settings.Host,
		Port:     settings.Port,
		APIKey:   settings.APIKey,
		UseTLS:   settings.UseTLS,
		PoolSize: uint(config.QdrantPoolSize),
		// seconds
		KeepAliveTime: int(config.QdrantKeepAliveTimeout / time.Second),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil, err
	}

	logger.Info("Qdrant client created", "host", settings.Host, "port", settings.Port, "collection", settings.Collection)
	return &ClientHolder{
		QObj:            client,
		collection:      settings.Collection,
		cacheCollection: config.SemanticCacheCollection,
		logger:          logger,
	}, nil
}

func (db *ClientHolder) Close() error {
	db.logger.Info("Shutting down Qdrant")
	return db.QObj.Close()
}

// PointID maps a chunk id to the deterministic UUID used as the qdrant point id.
func PointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(recordID)).String()
}

func (db *ClientHolder) CreateCollection(ctx context.Context, dimension int) error {
	if err := createCollection(ctx, db.QObj, db.collection, dimension); err != nil {
		db.logger.Error("could not create collection: ", "collectionName", db.collection, "error:", err)
		return err
	}
	if err := createCollection(ctx, db.QObj, db.cacheCollection, dimension); err != nil {
		db.logger.WithTrace(ctx).Error("Semantic cache collection creation failed", "error", err)
		return err
	}
	return nil
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, records []commonModels.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		payload, err := toPayload(rec.Id, rec.Metadata)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.Id, err)
		}
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(rec.Id)),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: payload,
		}
	}

	start := time.Now()
	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	metrics.CaptureExecutionMetrics("vector_upsert", time.Since(start))
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) Query(ctx context.Context, vector []float32, topK int) ([]commonModels.Match, error) {
	loggr := db.logger.WithTrace(ctx)
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be > 0, got %d", topK)
	}

	start := time.Now()
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	metrics.CaptureExecutionMetrics("vector_query", time.Since(start))
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	matches := make([]commonModels.Match, 0, len(result))
	for _, hit := range result {
		id, metadata := fromPayload(hit.Payload)
		if id == "" {
			id = hit.GetId().GetUuid()
		}
		matches = append(matches, commonModels.Match{
			Id:       id,
			Score:    float64(hit.Score),
			Metadata: metadata,
		})
	}
	loggr.Debug("Found matches", "count", len(matches))
	return matches, nil
}

func (db *ClientHolder) Fetch(ctx context.Context, ids []string) (map[string]commonModels.ChunkRecord, error) {
	out := make(map[string]commonModels.ChunkRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(PointID(id))
	}

	points, err := db.QObj.Get(ctx, &qdrant.GetPoints{
		CollectionName: db.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant fetch failed: %w", err)
	}

	for _, p := range points {
		id, metadata := fromPayload(p.Payload)
		if id == "" {
			continue
		}
		out[id] = commonModels.ChunkRecord{
			Id:       id,
			Vector:   denseVector(p.GetVectors().GetVector()),
			Metadata: metadata,
		}
	}
	return out, nil
}

func (db *ClientHolder) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	payload, err := toPayload(id, metadata)
	if err != nil {
		return fmt.Errorf("record %s: %w", id, err)
	}
	_, err = db.QObj.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: db.collection,
		Wait:           qdrant.PtrOf(true),
		Payload:        payload,
		PointsSelector: qdrant.NewPointsSelector(qdrant.NewID(PointID(id))),
	})
	if err != nil {
		return fmt.Errorf("qdrant set payload failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) Count(ctx context.Context) (int, error) {
	n, err := db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: db.collection,
		Exact:          qdrant.PtrOf(true),
	})
	return int(n), err
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension int) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func denseVector(v *qdrant.VectorOutput) []float32 {
	if v == nil {
		return nil
	}
	if dense := v.GetDense(); dense != nil {
		return dense.GetData()
	}
	return v.GetData()
}
