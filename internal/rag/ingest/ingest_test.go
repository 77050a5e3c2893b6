package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

func TestMain(m *testing.M) {
	logger_i.Init()
	m.Run()
}

type mockEmbedder struct {
	batchFunc func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{0.1}, nil
}
func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	return m.batchFunc(ctx, chunks)
}

type mockAppender struct {
	appendFunc func(ctx context.Context, category string, chunks []corpus.Chunk, vectors [][]float32) (int, error)
}

func (m *mockAppender) CreateOrAppend(ctx context.Context, category string, chunks []corpus.Chunk, vectors [][]float32) (int, error) {
	return m.appendFunc(ctx, category, chunks, vectors)
}

func TestSplitText(t *testing.T) {
	text := "This is a long sentence. This is another sentence that will be split."
	limit := 30
	overlap := 5

	chunks := SplitText(text, limit, overlap)

	if len(chunks) < 2 {
		t.Errorf("Expected multiple chunks, got %d", len(chunks))
	}

	// overlap: second chunk starts with the tail of the first
	if len(chunks) > 1 {
		tail := chunks[0][len(chunks[0])-overlap:]
		if !strings.HasPrefix(chunks[1], tail) {
			t.Errorf("Expected chunk overlap, got %q vs %q", tail, chunks[1])
		}
	}
}

func TestSplitText_Short(t *testing.T) {
	text := "Short clause."
	chunks := SplitText(text, 100, 10)
	if len(chunks) != 1 || chunks[0] != text {
		t.Errorf("Expected single unchanged chunk, got %v", chunks)
	}
}

func TestPrepareChunks(t *testing.T) {
	doc := corpus.Document{
		SourcePath: "/tmp/lease.pdf",
		RawText:    strings.Repeat("The tenant shall pay rent monthly. ", 60),
	}

	chunks := PrepareChunks(doc, "Lease")

	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.SourcePath != doc.SourcePath {
			t.Errorf("chunk %d source mismatch: %s", i, c.SourcePath)
		}
		if c.Category != "Lease" {
			t.Errorf("chunk %d category mismatch: %s", i, c.Category)
		}
		if c.Position != i {
			t.Errorf("chunk %d position got %d", i, c.Position)
		}
		if c.ChunkId == "" {
			t.Errorf("chunk %d missing id", i)
		}
	}
}

func TestBatchIngest(t *testing.T) {
	chunks := make([]corpus.Chunk, 150) // 2 batches: 100 + 50
	for i := range chunks {
		chunks[i] = corpus.Chunk{Text: "test content"}
	}

	appendCalls := 0
	store := &mockAppender{
		appendFunc: func(ctx context.Context, category string, c []corpus.Chunk, v [][]float32) (int, error) {
			appendCalls++
			return len(c), nil
		},
	}
	emb := &mockEmbedder{
		batchFunc: func(ctx context.Context, ch []string) ([][]float32, error) {
			return make([][]float32, len(ch)), nil
		},
	}

	total, err := BatchIngest(context.Background(), "nda", chunks, emb, store)
	if err != nil {
		t.Fatalf("BatchIngest failed: %v", err)
	}
	if appendCalls != 2 {
		t.Errorf("Expected 2 batches appended, got %d", appendCalls)
	}
	if total != 150 {
		t.Errorf("Expected 150 chunks ingested, got %d", total)
	}
}

func TestBatchIngest_EmbeddingError(t *testing.T) {
	store := &mockAppender{
		appendFunc: func(ctx context.Context, category string, c []corpus.Chunk, v [][]float32) (int, error) {
			t.Fatal("append must not run when embedding fails")
			return 0, nil
		},
	}
	emb := &mockEmbedder{
		batchFunc: func(ctx context.Context, ch []string) ([][]float32, error) {
			return nil, errors.New("api limit")
		},
	}

	_, err := BatchIngest(context.Background(), "nda", []corpus.Chunk{{Text: "hi"}}, emb, store)
	if err == nil {
		t.Error("Expected error from BatchIngest, got nil")
	}
}
