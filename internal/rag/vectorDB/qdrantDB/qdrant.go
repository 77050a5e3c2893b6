package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQdrantClient(ctx context.Context) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("qdrant")
		res := newClient(ctx)
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{QObj: qdrantInstance}
}

func newClient(ctx context.Context) *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate qdrant client", "error", err)
		return nil
	}

	// reachability check, collections are created lazily per category
	if _, err = client.ListCollections(ctx); err != nil {
		logger.Error("qdrant is unreachable", "host", host, "error", err)
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close qdrant", "error", err)
	}
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("empty collection name")
	}

	exists, err := db.QObj.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *ClientHolder) CollectionExists(ctx context.Context, name string) (bool, error) {
	return db.QObj.CollectionExists(ctx, name)
}

func (db *ClientHolder) UpsertChunks(ctx context.Context, name string, chunks []corpus.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":     chunk.Text,
				"source_path": chunk.SourcePath,
				"category":    chunk.Category,
				"position":    chunk.Position,
				"chunk_id":    chunk.ChunkId,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) Search(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error) {
	query := &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if sourcePath != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("source_path", sourcePath)},
		}
	}

	result, err := db.QObj.Query(ctx, query)
	if err != nil {
		logger.Error("error querying qdrant", "collection", name, "error", err)
		return nil, err
	}

	hits := make([]corpus.SearchHit, 0, len(result))
	for _, hit := range result {
		hits = append(hits, corpus.SearchHit{
			Chunk: corpus.Chunk{
				ChunkId:    hit.Payload["chunk_id"].GetStringValue(),
				Text:       hit.Payload["content"].GetStringValue(),
				SourcePath: hit.Payload["source_path"].GetStringValue(),
				Category:   hit.Payload["category"].GetStringValue(),
				Position:   int(hit.Payload["position"].GetIntegerValue()),
			},
			Score: hit.Score,
		})
	}
	return hits, nil
}

func (db *ClientHolder) Count(ctx context.Context, name string) (int, error) {
	count, err := db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (db *ClientHolder) ListCollections(ctx context.Context) ([]string, error) {
	return db.QObj.ListCollections(ctx)
}

func (db *ClientHolder) DeleteCollection(ctx context.Context, name string) error {
	return db.QObj.DeleteCollection(ctx, name)
}
