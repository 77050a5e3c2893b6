package chromemDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/pkg/logger_i"
	chromem "github.com/philippgille/chromem-go"
)

// Store is the embedded backend: one gob-persisted chromem collection per
// (store prefix, category), no external service. This is what lets
// load-after-restart and delete-removes-artifacts work on plain local disk.
type Store struct {
	db     *chromem.DB
	logger *logger_i.Logger
}

// All embeddings are computed upstream; chromem must never embed on its own.
func noEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embeddings are precomputed, chromem embedding func must not be called")
}

func New(root string, compress bool) (*Store, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("creating store root %s: %w", root, err)
	}
	db, err := chromem.NewPersistentDB(root, compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem db: %w", err)
	}
	return &Store{db: db, logger: logger_i.NewLogger("chromem")}, nil
}

// NewInMemory backs the store with a non-persisted DB. Test use only.
func NewInMemory() *Store {
	return &Store{db: chromem.NewDB(), logger: logger_i.NewLogger("chromem")}
}

func (s *Store) EnsureCollection(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("empty collection name")
	}
	_, err := s.db.GetOrCreateCollection(name, nil, noEmbedding)
	return err
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	return s.db.GetCollection(name, noEmbedding) != nil, nil
}

func (s *Store) UpsertChunks(ctx context.Context, name string, chunks []corpus.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	col, err := s.db.GetOrCreateCollection(name, nil, noEmbedding)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        chunk.ChunkId,
			Content:   chunk.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"source_path": chunk.SourcePath,
				"category":    chunk.Category,
				"position":    strconv.Itoa(chunk.Position),
			},
		}
	}
	return col.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (s *Store) Search(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error) {
	col := s.db.GetCollection(name, noEmbedding)
	if col == nil {
		return nil, faults.New(faults.StoreNotFound, fmt.Sprintf("no store named %s", name))
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		// chromem rejects nResults > collection size
		limit = count
	}

	var where map[string]string
	if sourcePath != "" {
		where = map[string]string{"source_path": sourcePath}
	}

	results, err := col.QueryEmbedding(ctx, vector, limit, where, nil)
	if err != nil {
		s.logger.Error("error querying chromem", "collection", name, "error", err)
		return nil, err
	}

	hits := make([]corpus.SearchHit, 0, len(results))
	for _, r := range results {
		position, _ := strconv.Atoi(r.Metadata["position"])
		hits = append(hits, corpus.SearchHit{
			Chunk: corpus.Chunk{
				ChunkId:    r.ID,
				Text:       r.Content,
				SourcePath: r.Metadata["source_path"],
				Category:   r.Metadata["category"],
				Position:   position,
			},
			Score: r.Similarity,
		})
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context, name string) (int, error) {
	col := s.db.GetCollection(name, noEmbedding)
	if col == nil {
		return 0, faults.New(faults.StoreNotFound, fmt.Sprintf("no store named %s", name))
	}
	return col.Count(), nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	collections := s.db.ListCollections()
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	return names, nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	return s.db.DeleteCollection(name)
}
