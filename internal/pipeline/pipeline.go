package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/clauselens/clauselens/internal/categorize"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/conversation"
	"github.com/clauselens/clauselens/internal/domain/corpus"
	"github.com/clauselens/clauselens/internal/extract"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/metrics"
	"github.com/clauselens/clauselens/internal/rag"
	"github.com/clauselens/clauselens/internal/rag/embedding"
	"github.com/clauselens/clauselens/internal/rag/ingest"
	"github.com/clauselens/clauselens/internal/rag/retrieve"
	"github.com/clauselens/clauselens/internal/report"
	"github.com/clauselens/clauselens/internal/stores"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

// DocumentResult is the per-file outcome of a processing run. One bad file
// never fails the batch.
type DocumentResult struct {
	Path          string `json:"path"`
	Category      string `json:"category,omitempty"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Error         string `json:"error,omitempty"`
}

// StatusReport is the pipeline's health snapshot.
type StatusReport struct {
	Ready              string         `json:"status"`
	ActivePrefix       string         `json:"active_store_prefix"`
	Categories         map[string]int `json:"categories"`
	TotalChunks        int            `json:"total_chunks"`
	DocumentsProcessed int            `json:"documents_processed"`
}

// Target names one retrieval scope: a file, a category, or (both empty) the
// whole corpus.
type Target struct {
	Category string
	FilePath string
}

func (t Target) scope() retrieve.Scope {
	if t.FilePath != "" {
		return retrieve.SingleFile(t.FilePath)
	}
	if t.Category != "" {
		return retrieve.SingleCategory(t.Category)
	}
	return retrieve.AllCategories()
}

func (t Target) label() string {
	if t.FilePath != "" {
		return filepath.Base(t.FilePath)
	}
	if t.Category != "" {
		return t.Category
	}
	return "all documents"
}

func (t Target) side() rag.Side {
	return rag.Side{Label: t.label(), Scope: t.scope()}
}

// Pipeline wires extraction, categorization, ingestion, retrieval, answering
// and conversation state into the operations the API surface exposes.
type Pipeline struct {
	extractor     extract.Adapter
	categorizer   categorize.Categorizer
	embedder      embedding.Embedder
	stores        *stores.Manager
	rag           rag.Service
	conversations conversation.Store
	reportLog     *report.Log
	pool          *ingestPool
	logger        *logger_i.Logger
}

func New(
	extractor extract.Adapter,
	categorizer categorize.Categorizer,
	embedder embedding.Embedder,
	storeManager *stores.Manager,
	ragService rag.Service,
	conversations conversation.Store,
	reportLog *report.Log,
) *Pipeline {
	return &Pipeline{
		extractor:     extractor,
		categorizer:   categorizer,
		embedder:      embedder,
		stores:        storeManager,
		rag:           ragService,
		conversations: conversations,
		reportLog:     reportLog,
		pool:          newIngestPool(),
		logger:        logger_i.NewLogger("pipeline"),
	}
}

// Shutdown drains the ingest pool. Call once, after the server stops
// accepting requests.
func (p *Pipeline) Shutdown() {
	p.pool.Shutdown()
}

// ProcessDocuments runs the full ingest path for each file concurrently and
// reports per-file outcomes in input order. A non-empty prefix switches the
// namespace new stores land in before any file is processed.
func (p *Pipeline) ProcessDocuments(ctx context.Context, paths []string, prefix string) ([]DocumentResult, error) {
	if len(paths) == 0 {
		return nil, faults.New(faults.InvalidInput, "no document paths given")
	}
	if prefix != "" {
		p.stores.SetActivePrefix(prefix)
	}

	results := make([]DocumentResult, len(paths))
	var group sync.WaitGroup
	for i, path := range paths {
		group.Add(1)
		i, path := i, path
		p.pool.Submit(func() {
			defer group.Done()
			results[i] = p.processOne(ctx, path)
		})
	}
	group.Wait()
	return results, nil
}

func (p *Pipeline) processOne(ctx context.Context, path string) DocumentResult {
	log := p.logger.With("document", path)
	result := DocumentResult{Path: path}

	start := time.Now()
	extractCtx, cancel := context.WithTimeout(ctx, config.ExtractTimeout)
	doc, err := p.extractor.Extract(extractCtx, path)
	cancel()
	metrics.CaptureStageMetrics("extract", time.Since(start))
	if err != nil {
		log.Error("extraction failed", "error", err)
		metrics.CountDocumentProcessed("extract_failed")
		result.Error = faults.UserMessage(err)
		return result
	}

	start = time.Now()
	record, err := p.categorizer.Categorize(ctx, doc)
	metrics.CaptureStageMetrics("categorize", time.Since(start))
	if err != nil {
		log.Error("categorization failed", "error", err)
		metrics.CountDocumentProcessed("categorize_failed")
		result.Error = faults.UserMessage(err)
		return result
	}
	result.Category = record.AssignedCategory

	chunks := ingest.PrepareChunks(doc, record.AssignedCategory)
	start = time.Now()
	added, err := ingest.BatchIngest(ctx, record.AssignedCategory, chunks, p.embedder, p.stores)
	metrics.CaptureStageMetrics("ingest", time.Since(start))
	result.ChunksIndexed = added
	if err != nil {
		log.Error("ingestion failed", "error", err, "chunksIndexed", added)
		metrics.CountDocumentProcessed("ingest_failed")
		result.Error = faults.UserMessage(err)
		return result
	}

	metrics.CountDocumentProcessed("ok")
	log.Info("document processed", "category", record.AssignedCategory, "chunks", added)
	return result
}

func (p *Pipeline) LoadStores(ctx context.Context, prefix string) (map[string]bool, error) {
	if prefix == "" {
		prefix = config.DefaultStorePrefix
	}
	return p.stores.Load(ctx, prefix)
}

func (p *Pipeline) DeleteStores(ctx context.Context, prefix string) (map[string]bool, error) {
	return p.stores.Delete(ctx, prefix)
}

func (p *Pipeline) Status() StatusReport {
	categories := p.stores.ListCategories()
	total := 0
	for _, count := range categories {
		total += count
	}

	ready := "not_ready"
	if p.stores.Ready() {
		ready = "ready"
	}
	return StatusReport{
		Ready:              ready,
		ActivePrefix:       p.stores.ActivePrefix(),
		Categories:         categories,
		TotalChunks:        total,
		DocumentsProcessed: len(p.reportLog.Records()),
	}
}

func (p *Pipeline) Categories() map[string]int {
	return p.stores.ListCategories()
}

func (p *Pipeline) Categorizations() []corpus.CategorizationRecord {
	return p.reportLog.Records()
}

func (p *Pipeline) ExportReport(path string) (string, error) {
	return p.reportLog.Export(path)
}

// Query answers a question inside a conversation: prior turns feed the
// prompt, and both the question and the answer are appended afterwards.
func (p *Pipeline) Query(ctx context.Context, session string, question string, target Target) (rag.Answer, error) {
	history, err := p.conversations.History(ctx, session)
	if err != nil {
		p.logger.Warn("could not read conversation history", "session", session, "error", err)
		history = nil
	}

	answer, err := p.rag.Ask(ctx, question, target.scope(), history)
	if err != nil {
		return rag.Answer{}, err
	}

	if err := p.conversations.Append(ctx, session,
		corpus.Turn{Role: corpus.RoleUser, Content: question},
		corpus.Turn{Role: corpus.RoleAssistant, Content: answer.Text},
	); err != nil {
		// the answer is still good, history just loses a turn
		p.logger.Warn("could not append conversation turns", "session", session, "error", err)
	}
	return answer, nil
}

func (p *Pipeline) Compare(ctx context.Context, question string, a Target, b Target) (rag.Answer, error) {
	if question == "" {
		return rag.Answer{}, faults.New(faults.InvalidInput, "empty comparison question")
	}
	return p.rag.Compare(ctx, question, a.side(), b.side())
}

func (p *Pipeline) CompareObligations(ctx context.Context, a Target, b Target) (rag.Answer, error) {
	return p.rag.CompareObligations(ctx, a.side(), b.side())
}

func (p *Pipeline) CompareTermination(ctx context.Context, a Target, b Target) (rag.Answer, error) {
	return p.rag.CompareTermination(ctx, a.side(), b.side())
}

func (p *Pipeline) CompareClauses(ctx context.Context, clause string, a Target, b Target) (rag.Answer, error) {
	return p.rag.CompareClauses(ctx, clause, a.side(), b.side())
}

func (p *Pipeline) Summarize(ctx context.Context, target Target) (rag.Answer, error) {
	return p.rag.Summarize(ctx, target.scope())
}

func (p *Pipeline) FindObligations(ctx context.Context, target Target) (rag.Answer, error) {
	return p.rag.FindObligations(ctx, target.scope())
}

func (p *Pipeline) FindTermination(ctx context.Context, target Target) (rag.Answer, error) {
	return p.rag.FindTermination(ctx, target.scope())
}

func (p *Pipeline) ExplainClause(ctx context.Context, clause string, target Target) (rag.Answer, error) {
	return p.rag.ExplainClause(ctx, clause, target.scope())
}

func (p *Pipeline) ConversationHistory(ctx context.Context, session string) ([]corpus.Turn, error) {
	return p.conversations.History(ctx, session)
}

func (p *Pipeline) ClearConversation(ctx context.Context, session string) error {
	return p.conversations.Clear(ctx, session)
}

// KnownCategories renders the category list for discovery responses.
func (p *Pipeline) KnownCategories() []string {
	return p.stores.CategoryNames()
}
