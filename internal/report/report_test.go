package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

func TestMain(m *testing.M) {
	logger_i.Init()
	m.Run()
}

func record(path string, category string) corpus.CategorizationRecord {
	return corpus.CategorizationRecord{
		DocumentPath:     path,
		AssignedCategory: category,
		Reasoning:        "keyword match",
		Timestamp:        time.Now(),
	}
}

func TestAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categorizations.jsonl")

	log, err := NewLog(path)
	if err != nil {
		t.Fatalf("NewLog failed: %v", err)
	}

	ctx := context.Background()
	log.Append(ctx, record("/docs/a.pdf", "Lease"))
	log.Append(ctx, record("/docs/b.pdf", "NDA"))

	// a fresh log on the same path replays the persisted records
	reopened, err := NewLog(path)
	if err != nil {
		t.Fatalf("NewLog replay failed: %v", err)
	}
	records := reopened.Records()
	if len(records) != 2 {
		t.Fatalf("Expected 2 replayed records, got %d", len(records))
	}
	if records[0].DocumentPath != "/docs/a.pdf" || records[1].AssignedCategory != "NDA" {
		t.Errorf("Replayed records out of order: %v", records)
	}
}

func TestReplaySkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categorizations.jsonl")
	content := `{"document_path":"/docs/a.pdf","assigned_category":"Lease"}
not json at all
{"document_path":"/docs/b.pdf","assigned_category":"NDA"}
`
	if err := os.WriteFile(path, []byte(content), 0640); err != nil {
		t.Fatal(err)
	}

	log, err := NewLog(path)
	if err != nil {
		t.Fatalf("NewLog failed: %v", err)
	}
	if len(log.Records()) != 2 {
		t.Errorf("Expected corrupt line skipped, got %d records", len(log.Records()))
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLog(filepath.Join(dir, "categorizations.jsonl"))
	if err != nil {
		t.Fatalf("NewLog failed: %v", err)
	}

	ctx := context.Background()
	log.Append(ctx, record("/docs/a.pdf", "Lease"))
	log.Append(ctx, record("/docs/b.pdf", "Lease"))
	log.Append(ctx, record("/docs/c.pdf", "NDA"))

	out := filepath.Join(dir, "report.json")
	written, err := log.Export(out)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if written != out {
		t.Errorf("Expected report at %s, got %s", out, written)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var exported exportedReport
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if exported.TotalDocuments != 3 {
		t.Errorf("Expected 3 documents, got %d", exported.TotalDocuments)
	}
	if exported.CountsByCategory["Lease"] != 2 || exported.CountsByCategory["NDA"] != 1 {
		t.Errorf("Unexpected counts: %v", exported.CountsByCategory)
	}
}
