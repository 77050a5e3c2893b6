package vectorDB

import (
	"context"

	"github.com/clauselens/clauselens/internal/domain/corpus"
)

// DataStore is one vector index backend. Collections map 1:1 to
// (store prefix, category) pairs; the store manager owns the naming.
type DataStore interface {
	EnsureCollection(ctx context.Context, name string) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	UpsertChunks(ctx context.Context, name string, chunks []corpus.Chunk, vectors [][]float32) error

	// Search returns hits by descending similarity. A non-empty sourcePath
	// restricts results to chunks from that exact file.
	Search(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error)

	Count(ctx context.Context, name string) (int, error)
	ListCollections(ctx context.Context) ([]string, error)
	DeleteCollection(ctx context.Context, name string) error
}
