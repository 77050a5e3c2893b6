package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clauselens/clauselens/internal/categorize"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/conversation"
	"github.com/clauselens/clauselens/internal/extract"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/rag"
	"github.com/clauselens/clauselens/internal/rag/retrieve"
	"github.com/clauselens/clauselens/internal/rag/vectorDB/chromemDB"
	"github.com/clauselens/clauselens/internal/report"
	"github.com/clauselens/clauselens/internal/stores"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

func TestMain(m *testing.M) {
	logger_i.Init()
	m.Run()
}

type fixedEmbedder struct{}

// vectors keyed off text length keep similar texts apart without a model
func (e *fixedEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{float32(len(query)%7) + 1, 1, 1}, nil
}

func (e *fixedEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i] = []float32{float32(len(c)%7) + 1, 1, 1}
	}
	return out, nil
}

type scriptedProvider struct {
	reply string
}

func (p *scriptedProvider) Generate(ctx context.Context, system string, prompt string) (string, error) {
	return p.reply, nil
}

func newTestPipeline(t *testing.T, reply string) *Pipeline {
	t.Helper()

	backend := chromemDB.NewInMemory()
	manager := stores.NewManager(backend, config.DefaultStorePrefix)
	embedder := &fixedEmbedder{}
	router := retrieve.NewRouter(manager, backend, embedder)

	reportLog, err := report.NewLog(filepath.Join(t.TempDir(), "categorizations.jsonl"))
	if err != nil {
		t.Fatalf("NewLog failed: %v", err)
	}

	p := New(
		extract.NewAdapter(),
		categorize.NewCategorizer(nil, reportLog, true),
		embedder,
		manager,
		rag.NewService(router, &scriptedProvider{reply: reply}),
		conversation.NewMemoryStore(),
		reportLog,
	)
	t.Cleanup(p.Shutdown)
	return p
}

func writeLease(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "office_lease.txt")
	text := "LEASE AGREEMENT\n\nThe Landlord leases the premises to the Tenant. " +
		"The Tenant shall pay rent of $2,000 monthly. Either party may terminate on 60 days notice."
	if err := os.WriteFile(path, []byte(text), 0640); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessDocuments(t *testing.T) {
	p := newTestPipeline(t, "irrelevant")
	dir := t.TempDir()
	lease := writeLease(t, dir)
	missing := filepath.Join(dir, "nope.pdf")

	results, err := p.ProcessDocuments(context.Background(), []string{lease, missing}, "")
	if err != nil {
		t.Fatalf("ProcessDocuments failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	if results[0].Error != "" {
		t.Errorf("Expected lease to process, got error %q", results[0].Error)
	}
	if results[0].Category != "Lease" {
		t.Errorf("Expected Lease category, got %q", results[0].Category)
	}
	if results[0].ChunksIndexed == 0 {
		t.Error("Expected indexed chunks for lease")
	}

	// one bad file never fails the batch
	if results[1].Error == "" {
		t.Error("Expected error for missing file")
	}

	status := p.Status()
	if status.Ready != "ready" {
		t.Errorf("Expected ready pipeline, got %s", status.Ready)
	}
	if status.DocumentsProcessed != 1 {
		t.Errorf("Expected 1 recorded document, got %d", status.DocumentsProcessed)
	}
	if _, ok := status.Categories["lease"]; !ok {
		t.Errorf("Expected lease category in status, got %v", status.Categories)
	}
}

func TestQueryBeforeProcessing(t *testing.T) {
	p := newTestPipeline(t, "irrelevant")

	_, err := p.Query(context.Background(), "s1", "when is rent due?", Target{})
	if !faults.IsKind(err, faults.PipelineNotReady) {
		t.Errorf("Expected PipelineNotReady, got %v", err)
	}
}

func TestQueryRecordsConversation(t *testing.T) {
	p := newTestPipeline(t, "Rent is $2,000 per month (office_lease.txt).")
	lease := writeLease(t, t.TempDir())

	if _, err := p.ProcessDocuments(context.Background(), []string{lease}, ""); err != nil {
		t.Fatalf("ProcessDocuments failed: %v", err)
	}

	answer, err := p.Query(context.Background(), "s1", "how much is rent?", Target{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !strings.Contains(answer.Text, "2,000") {
		t.Errorf("Unexpected answer: %q", answer.Text)
	}
	if len(answer.Sources) == 0 || answer.Sources[0] != "office_lease.txt" {
		t.Errorf("Expected cited source, got %v", answer.Sources)
	}

	turns, err := p.ConversationHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ConversationHistory failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("Expected question and answer recorded, got %d turns", len(turns))
	}

	if err := p.ClearConversation(context.Background(), "s1"); err != nil {
		t.Fatalf("ClearConversation failed: %v", err)
	}
	turns, _ = p.ConversationHistory(context.Background(), "s1")
	if len(turns) != 0 {
		t.Errorf("Expected cleared history, got %d turns", len(turns))
	}
}

func TestQueryUnknownCategory(t *testing.T) {
	p := newTestPipeline(t, "irrelevant")
	lease := writeLease(t, t.TempDir())
	p.ProcessDocuments(context.Background(), []string{lease}, "")

	_, err := p.Query(context.Background(), "s1", "anything", Target{Category: "maritime"})
	if !faults.IsKind(err, faults.CategoryNotFound) {
		t.Errorf("Expected CategoryNotFound, got %v", err)
	}
}

func TestSummarizeFile(t *testing.T) {
	p := newTestPipeline(t, "A lease between landlord and tenant, $2,000 monthly, 60 days notice.")
	lease := writeLease(t, t.TempDir())
	p.ProcessDocuments(context.Background(), []string{lease}, "")

	answer, err := p.Summarize(context.Background(), Target{FilePath: lease})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if answer.Text == "" {
		t.Error("Expected a summary")
	}

	_, err = p.Summarize(context.Background(), Target{FilePath: "/docs/never_indexed.pdf"})
	if !faults.IsKind(err, faults.FileNotIndexed) {
		t.Errorf("Expected FileNotIndexed, got %v", err)
	}
}

func TestExportReport(t *testing.T) {
	p := newTestPipeline(t, "irrelevant")
	dir := t.TempDir()
	lease := writeLease(t, dir)
	p.ProcessDocuments(context.Background(), []string{lease}, "")

	out := filepath.Join(dir, "report.json")
	written, err := p.ExportReport(out)
	if err != nil {
		t.Fatalf("ExportReport failed: %v", err)
	}
	if _, err := os.Stat(written); err != nil {
		t.Errorf("Expected report file at %s: %v", written, err)
	}

	records := p.Categorizations()
	if len(records) != 1 || records[0].AssignedCategory != "Lease" {
		t.Errorf("Unexpected categorization records: %v", records)
	}
}
