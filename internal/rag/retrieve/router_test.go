package retrieve

import (
	"context"
	"testing"

	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

func TestMain(m *testing.M) {
	logger_i.Init()
	m.Run()
}

type mockCatalog struct {
	ready      bool
	categories []string
}

func (m *mockCatalog) Ready() bool             { return m.ready }
func (m *mockCatalog) CategoryNames() []string { return m.categories }
func (m *mockCatalog) HasCategory(c string) bool {
	for _, known := range m.categories {
		if known == c {
			return true
		}
	}
	return false
}
func (m *mockCatalog) CollectionFor(c string) string { return "legal_docs__" + c }

type mockSearcher struct {
	searchFunc func(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error)
}

func (m *mockSearcher) Search(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error) {
	return m.searchFunc(ctx, name, vector, limit, sourcePath)
}

type mockEmbedder struct{}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{0.5, 0.5}, nil
}
func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	return make([][]float32, len(chunks)), nil
}

func hit(category string, score float32, position int) corpus.SearchHit {
	return corpus.SearchHit{
		Chunk: corpus.Chunk{Text: "clause text", Category: category, Position: position, SourcePath: "/docs/a.pdf"},
		Score: score,
	}
}

func TestRetrieve_NotReady(t *testing.T) {
	r := NewRouter(&mockCatalog{ready: false}, &mockSearcher{}, &mockEmbedder{})

	_, err := r.Retrieve(context.Background(), "what is the notice period?", AllCategories())
	if !faults.IsKind(err, faults.PipelineNotReady) {
		t.Errorf("Expected PipelineNotReady, got %v", err)
	}
}

func TestRetrieve_EmptyQuestion(t *testing.T) {
	r := NewRouter(&mockCatalog{ready: true}, &mockSearcher{}, &mockEmbedder{})

	_, err := r.Retrieve(context.Background(), "   ", AllCategories())
	if !faults.IsKind(err, faults.InvalidInput) {
		t.Errorf("Expected InvalidInput, got %v", err)
	}
}

func TestRetrieve_AllMergesAndRanks(t *testing.T) {
	catalog := &mockCatalog{ready: true, categories: []string{"lease", "nda"}}
	searcher := &mockSearcher{
		searchFunc: func(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error) {
			if name == "legal_docs__lease" {
				return []corpus.SearchHit{hit("lease", 0.9, 3), hit("lease", 0.4, 0)}, nil
			}
			return []corpus.SearchHit{hit("nda", 0.9, 1), hit("nda", 0.7, 2)}, nil
		},
	}

	hits, err := NewRouter(catalog, searcher, &mockEmbedder{}).Retrieve(context.Background(), "termination clause", AllCategories())
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(hits) != 4 {
		t.Fatalf("Expected 4 merged hits, got %d", len(hits))
	}
	// tie at 0.9 resolves by lower position
	if hits[0].Category != "nda" || hits[0].Position != 1 {
		t.Errorf("Expected nda position 1 first, got %s position %d", hits[0].Category, hits[0].Position)
	}
	if hits[1].Category != "lease" || hits[1].Position != 3 {
		t.Errorf("Expected lease position 3 second, got %s position %d", hits[1].Category, hits[1].Position)
	}
	if hits[3].Score != 0.4 {
		t.Errorf("Expected weakest hit last, got score %f", hits[3].Score)
	}
}

func TestRetrieve_AllSurvivesOneBadStore(t *testing.T) {
	catalog := &mockCatalog{ready: true, categories: []string{"lease", "nda"}}
	searcher := &mockSearcher{
		searchFunc: func(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error) {
			if name == "legal_docs__lease" {
				return nil, faults.New(faults.CorruptIndex, "bad store")
			}
			return []corpus.SearchHit{hit("nda", 0.8, 0)}, nil
		},
	}

	hits, err := NewRouter(catalog, searcher, &mockEmbedder{}).Retrieve(context.Background(), "confidentiality", AllCategories())
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Category != "nda" {
		t.Errorf("Expected surviving nda hit, got %v", hits)
	}
}

func TestRetrieve_UnknownCategory(t *testing.T) {
	catalog := &mockCatalog{ready: true, categories: []string{"lease"}}
	r := NewRouter(catalog, &mockSearcher{}, &mockEmbedder{})

	_, err := r.Retrieve(context.Background(), "anything", SingleCategory("maritime"))
	if !faults.IsKind(err, faults.CategoryNotFound) {
		t.Errorf("Expected CategoryNotFound, got %v", err)
	}
}

func TestRetrieve_FileScopePassesSourceFilter(t *testing.T) {
	catalog := &mockCatalog{ready: true, categories: []string{"lease"}}
	var gotSource string
	searcher := &mockSearcher{
		searchFunc: func(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error) {
			gotSource = sourcePath
			return []corpus.SearchHit{hit("lease", 0.6, 0)}, nil
		},
	}

	_, err := NewRouter(catalog, searcher, &mockEmbedder{}).Retrieve(context.Background(), "rent", SingleFile("/docs/a.pdf"))
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if gotSource != "/docs/a.pdf" {
		t.Errorf("Expected source filter /docs/a.pdf, got %q", gotSource)
	}
}

func TestRetrieve_FileNotIndexed(t *testing.T) {
	catalog := &mockCatalog{ready: true, categories: []string{"lease"}}
	searcher := &mockSearcher{
		searchFunc: func(ctx context.Context, name string, vector []float32, limit int, sourcePath string) ([]corpus.SearchHit, error) {
			return nil, nil
		},
	}

	_, err := NewRouter(catalog, searcher, &mockEmbedder{}).Retrieve(context.Background(), "rent", SingleFile("/docs/missing.pdf"))
	if !faults.IsKind(err, faults.FileNotIndexed) {
		t.Errorf("Expected FileNotIndexed, got %v", err)
	}
}
