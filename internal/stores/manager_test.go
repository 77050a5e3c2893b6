package stores

import (
	"context"
	"testing"

	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/rag/vectorDB/chromemDB"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

func TestMain(m *testing.M) {
	logger_i.Init()
	m.Run()
}

func chunksOf(category string, n int) ([]corpus.Chunk, [][]float32) {
	chunks := make([]corpus.Chunk, n)
	vectors := make([][]float32, n)
	for i := range chunks {
		chunks[i] = corpus.Chunk{
			ChunkId:    category + "-" + string(rune('a'+i)),
			Text:       "clause text",
			SourcePath: "/docs/" + category + ".pdf",
			Category:   category,
			Position:   i,
		}
		vectors[i] = []float32{1, float32(i), 1}
	}
	return chunks, vectors
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"Lease":                "lease",
		"  Service Agreement ": "service_agreement",
		"NDA":                  "nda",
	}
	for in, want := range cases {
		if got := NormalizeCategory(in); got != want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateOrAppend(t *testing.T) {
	m := NewManager(chromemDB.NewInMemory(), "legal_docs")
	ctx := context.Background()

	if m.Ready() {
		t.Error("Expected manager not ready before any append")
	}

	chunks, vectors := chunksOf("Lease", 3)
	added, err := m.CreateOrAppend(ctx, "Lease", chunks, vectors)
	if err != nil {
		t.Fatalf("CreateOrAppend failed: %v", err)
	}
	if added != 3 {
		t.Errorf("Expected 3 chunks appended, got %d", added)
	}
	if !m.Ready() {
		t.Error("Expected manager ready after append")
	}

	// appends are monotonic, same chunks land again
	more, _ := chunksOf("lease", 2)
	vecs := [][]float32{{1, 0, 1}, {1, 1, 1}}
	if _, err := m.CreateOrAppend(ctx, "lease", more[:2], vecs); err != nil {
		t.Fatalf("second CreateOrAppend failed: %v", err)
	}

	counts := m.ListCategories()
	if counts["lease"] != 5 {
		t.Errorf("Expected 5 chunks counted for lease, got %d", counts["lease"])
	}
}

func TestLoadRebuildsView(t *testing.T) {
	backend := chromemDB.NewInMemory()
	writer := NewManager(backend, "legal_docs")
	ctx := context.Background()

	chunks, vectors := chunksOf("NDA", 2)
	if _, err := writer.CreateOrAppend(ctx, "NDA", chunks, vectors); err != nil {
		t.Fatal(err)
	}

	// a second manager over the same backend starts cold and loads
	reader := NewManager(backend, "legal_docs")
	results, err := reader.Load(ctx, "legal_docs")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !results["nda"] {
		t.Errorf("Expected nda loaded, got %v", results)
	}
	if !reader.Ready() || reader.ListCategories()["nda"] != 2 {
		t.Errorf("Expected rebuilt counts, got %v", reader.ListCategories())
	}
}

func TestLoadUnknownPrefix(t *testing.T) {
	m := NewManager(chromemDB.NewInMemory(), "legal_docs")

	_, err := m.Load(context.Background(), "ghost_prefix")
	if !faults.IsKind(err, faults.StoreNotFound) {
		t.Errorf("Expected StoreNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	m := NewManager(chromemDB.NewInMemory(), "legal_docs")
	ctx := context.Background()

	chunks, vectors := chunksOf("Lease", 2)
	m.CreateOrAppend(ctx, "Lease", chunks, vectors)

	deleted, err := m.Delete(ctx, "legal_docs")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted["lease"] {
		t.Errorf("Expected lease deleted, got %v", deleted)
	}
	if m.Ready() {
		t.Error("Expected manager not ready after deleting the active prefix")
	}
	if len(m.ListCategories()) != 0 {
		t.Errorf("Expected empty view, got %v", m.ListCategories())
	}
}

func TestHasCategoryNormalizes(t *testing.T) {
	m := NewManager(chromemDB.NewInMemory(), "legal_docs")
	chunks, vectors := chunksOf("Service Agreement", 1)
	m.CreateOrAppend(context.Background(), "Service Agreement", chunks, vectors)

	if !m.HasCategory("service agreement") || !m.HasCategory("SERVICE AGREEMENT") {
		t.Error("Expected category lookup to be case and spacing insensitive")
	}
}
