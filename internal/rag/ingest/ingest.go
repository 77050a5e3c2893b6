package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/rag/embedding"
	"github.com/google/uuid"
)

// Appender is the slice of the store manager the ingest path needs.
type Appender interface {
	CreateOrAppend(ctx context.Context, category string, chunks []corpus.Chunk, vectors [][]float32) (int, error)
}

// SplitText cuts text into overlapping windows, preferring paragraph and
// sentence boundaries over hard cuts.
func SplitText(text string, limit int, overlap int) []string {
	var chunks []string

	if len(text) <= limit {
		return []string{text}
	}

	// separators ordered from best to worst for semantic meaning
	separators := []string{"\n\n", "\n", ". ", " ", ""}

	var splitChar string
	found := false
	for _, s := range separators {
		if strings.Contains(text, s) {
			splitChar = s
			found = true
			break
		}
	}

	if !found {
		// hard cut if no separator found (rare)
		return []string{text[:limit]}
	}

	parts := strings.Split(text, splitChar)
	var currentChunk strings.Builder

	for _, part := range parts {
		if currentChunk.Len()+len(part)+len(splitChar) > limit {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
			}

			// start the next chunk with the tail of the previous one
			overlapContent := ""
			if currentChunk.Len() > overlap {
				overlapContent = currentChunk.String()[currentChunk.Len()-overlap:]
			}

			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
		}

		if currentChunk.Len() > 0 && splitChar != "" {
			currentChunk.WriteString(splitChar)
		}
		currentChunk.WriteString(part)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

// PrepareChunks maps a categorized document into retrieval chunks. Position
// is the chunk's order within the document; it breaks ranking ties later.
func PrepareChunks(doc corpus.Document, category string) []corpus.Chunk {
	pieces := SplitText(doc.RawText, config.MaxChunkSize, config.ChunkOverlap)

	chunks := make([]corpus.Chunk, 0, len(pieces))
	for i, text := range pieces {
		if strings.TrimSpace(text) == "" {
			continue
		}
		chunks = append(chunks, corpus.Chunk{
			ChunkId:    uuid.New().String(),
			Text:       text,
			SourcePath: doc.SourcePath,
			Category:   category,
			Position:   i,
		})
	}
	return chunks
}

// BatchIngest embeds chunks in bounded batches and appends each batch to the
// category store. Returns the number of chunks appended.
func BatchIngest(ctx context.Context, category string, chunks []corpus.Chunk, embedder embedding.Embedder, store Appender) (int, error) {
	total := 0
	for i := 0; i < len(chunks); i += config.EmbeddingBatchSize {
		end := i + config.EmbeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		currentBatch := chunks[i:end]

		texts := make([]string, len(currentBatch))
		for j, c := range currentBatch {
			texts[j] = c.Text
		}

		embedCtx, cancel := context.WithTimeout(ctx, config.EmbeddingTimeout)
		vectors, err := embedder.BatchEmbedding(embedCtx, texts)
		cancel()
		if err != nil {
			return total, fmt.Errorf("embedding batch failed: %w", err)
		}

		added, err := store.CreateOrAppend(ctx, category, currentBatch, vectors)
		if err != nil {
			return total, fmt.Errorf("appending to category store failed: %w", err)
		}
		total += added
	}
	return total, nil
}
