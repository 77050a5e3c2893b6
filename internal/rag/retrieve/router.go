package retrieve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/rag/embedding"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

// Catalog is the slice of the store manager the retrieval path reads.
type Catalog interface {
	Ready() bool
	CategoryNames() []string
	HasCategory(category string) bool
	CollectionFor(category string) string
}

// Searcher runs a vector query against one named collection. A non-empty
// sourcePath restricts hits to chunks from that document.
type Searcher interface {
	Search(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error)
}

type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeCategory
	ScopeFile
)

// Scope narrows retrieval to the whole corpus, one category, or one file.
type Scope struct {
	Kind       ScopeKind
	Category   string
	SourcePath string
}

func AllCategories() Scope                 { return Scope{Kind: ScopeAll} }
func SingleCategory(category string) Scope { return Scope{Kind: ScopeCategory, Category: category} }
func SingleFile(path string) Scope         { return Scope{Kind: ScopeFile, SourcePath: path} }

type Router struct {
	catalog  Catalog
	searcher Searcher
	embedder embedding.Embedder
	logger   *logger_i.Logger
}

func NewRouter(catalog Catalog, searcher Searcher, embedder embedding.Embedder) *Router {
	return &Router{
		catalog:  catalog,
		searcher: searcher,
		embedder: embedder,
		logger:   logger_i.NewLogger("retrieval_router"),
	}
}

// Retrieve embeds the question once and fans the query out per scope. Hits
// are merged onto one score scale, so cross-category results stay comparable.
func (r *Router) Retrieve(ctx context.Context, question string, scope Scope) ([]corpus.SearchHit, error) {
	if strings.TrimSpace(question) == "" {
		return nil, faults.New(faults.InvalidInput, "empty question")
	}
	if !r.catalog.Ready() {
		return nil, faults.New(faults.PipelineNotReady, "no documents have been processed or loaded yet")
	}

	embedCtx, cancel := context.WithTimeout(ctx, config.EmbeddingTimeout)
	vector, err := r.embedder.GetEmbedding(embedCtx, question)
	cancel()
	if err != nil {
		return nil, faults.Wrap(faults.Provider, "could not embed question", err)
	}

	switch scope.Kind {
	case ScopeCategory:
		return r.searchCategory(ctx, vector, scope.Category)
	case ScopeFile:
		return r.searchFile(ctx, vector, scope.SourcePath)
	default:
		return r.searchAll(ctx, vector)
	}
}

func (r *Router) searchCategory(ctx context.Context, vector []float32, category string) ([]corpus.SearchHit, error) {
	if !r.catalog.HasCategory(category) {
		return nil, faults.New(faults.CategoryNotFound,
			fmt.Sprintf("no documents in category %q, known categories: %s", category, strings.Join(r.catalog.CategoryNames(), ", ")))
	}

	searchCtx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()
	hits, err := r.searcher.Search(searchCtx, r.catalog.CollectionFor(category), vector, config.TopK, "")
	if err != nil {
		return nil, faults.Wrap(faults.CorruptIndex, "category search failed", err)
	}
	return rank(hits), nil
}

// searchAll queries every category store and re-ranks the union. TopK applies
// to the merged list, not per store.
func (r *Router) searchAll(ctx context.Context, vector []float32) ([]corpus.SearchHit, error) {
	var merged []corpus.SearchHit
	for _, category := range r.catalog.CategoryNames() {
		searchCtx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
		hits, err := r.searcher.Search(searchCtx, r.catalog.CollectionFor(category), vector, config.TopK, "")
		cancel()
		if err != nil {
			// one bad store must not hide results from the others
			r.logger.Error("category search failed, continuing", "category", category, "error", err)
			continue
		}
		merged = append(merged, hits...)
	}
	return rank(merged), nil
}

func (r *Router) searchFile(ctx context.Context, vector []float32, sourcePath string) ([]corpus.SearchHit, error) {
	var merged []corpus.SearchHit
	for _, category := range r.catalog.CategoryNames() {
		searchCtx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
		hits, err := r.searcher.Search(searchCtx, r.catalog.CollectionFor(category), vector, config.TopK, sourcePath)
		cancel()
		if err != nil {
			r.logger.Error("file-scoped search failed, continuing", "category", category, "error", err)
			continue
		}
		merged = append(merged, hits...)
	}
	if len(merged) == 0 {
		return nil, faults.New(faults.FileNotIndexed, fmt.Sprintf("no indexed chunks for file %q", sourcePath))
	}
	return rank(merged), nil
}

// rank orders hits by score descending, document position ascending on ties,
// and truncates to TopK. Deterministic for identical inputs.
func rank(hits []corpus.SearchHit) []corpus.SearchHit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
	if len(hits) > config.TopK {
		hits = hits[:config.TopK]
	}
	return hits
}
