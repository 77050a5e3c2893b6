package handlers

import (
	"context"
	"net/http"

	"github.com/clauselens/clauselens/internal/api"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/pipeline"
	"github.com/clauselens/clauselens/internal/rag"
	"github.com/go-chi/chi/v5"
)

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, map[string]string{"status": "ok"})
}

func StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, _pipeline.Status())
}

func ProcessHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.ProcessRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	if len(req.Paths) == 0 {
		writeFault(w, faults.New(faults.InvalidInput, "paths is required"))
		return
	}

	logRH.Info("processing documents", "traceId", traceOf(r), "count", len(req.Paths))
	results, err := _pipeline.ProcessDocuments(r.Context(), req.Paths, req.StorePrefix)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, results)
}

func LoadStoresHandler(w http.ResponseWriter, r *http.Request) {
	var req api.LoadStoresRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}

	loaded, err := _pipeline.LoadStores(r.Context(), req.Prefix)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]interface{}{"loaded": loaded})
}

func DeleteStoresHandler(w http.ResponseWriter, r *http.Request) {
	var req api.DeleteStoresRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}

	logRH.Warn("deleting stores", "traceId", traceOf(r), "prefix", req.Prefix)
	deleted, err := _pipeline.DeleteStores(r.Context(), req.Prefix)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

func QueryHandler(w http.ResponseWriter, r *http.Request) {
	handleQuery(w, r, pipeline.Target{})
}

func QueryCategoryHandler(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if category == "" {
		writeFault(w, faults.New(faults.InvalidInput, "category is required"))
		return
	}
	handleQuery(w, r, pipeline.Target{Category: category})
}

func QueryFileHandler(w http.ResponseWriter, r *http.Request) {
	var req api.FileQueryRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	if req.Question == "" || req.FilePath == "" {
		writeFault(w, faults.New(faults.InvalidInput, "question and file_path are required"))
		return
	}

	answer, err := _pipeline.Query(r.Context(), req.Session, req.Question, pipeline.Target{FilePath: req.FilePath})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, api.AnswerResponse{Question: req.Question, Answer: answer.Text, Sources: answer.Sources})
}

func handleQuery(w http.ResponseWriter, r *http.Request, target pipeline.Target) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.QueryRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	if req.Question == "" {
		writeFault(w, faults.New(faults.InvalidInput, "question is required"))
		return
	}
	if target == (pipeline.Target{}) && req.Category != "" {
		target.Category = req.Category
	}

	answer, err := _pipeline.Query(r.Context(), req.Session, req.Question, target)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, api.AnswerResponse{Question: req.Question, Answer: answer.Text, Sources: answer.Sources})
}

func CompareHandler(w http.ResponseWriter, r *http.Request) {
	var req api.CompareRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	if req.Question == "" || req.CategoryA == "" || req.CategoryB == "" {
		writeFault(w, faults.New(faults.InvalidInput, "question, category_a and category_b are required"))
		return
	}

	answer, err := _pipeline.Compare(r.Context(), req.Question,
		pipeline.Target{Category: req.CategoryA}, pipeline.Target{Category: req.CategoryB})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, api.AnswerResponse{Question: req.Question, Answer: answer.Text, Sources: answer.Sources})
}

func CompareFilesHandler(w http.ResponseWriter, r *http.Request) {
	var req api.CompareFilesRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	if req.Question == "" || req.FileA == "" || req.FileB == "" {
		writeFault(w, faults.New(faults.InvalidInput, "question, file_a and file_b are required"))
		return
	}

	answer, err := _pipeline.Compare(r.Context(), req.Question,
		pipeline.Target{FilePath: req.FileA}, pipeline.Target{FilePath: req.FileB})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, api.AnswerResponse{Question: req.Question, Answer: answer.Text, Sources: answer.Sources})
}

func CompareObligationsHandler(w http.ResponseWriter, r *http.Request) {
	handleIntentCompare(w, r, _pipeline.CompareObligations)
}

func CompareTerminationHandler(w http.ResponseWriter, r *http.Request) {
	handleIntentCompare(w, r, _pipeline.CompareTermination)
}

func handleIntentCompare(w http.ResponseWriter, r *http.Request, compare func(ctx context.Context, a pipeline.Target, b pipeline.Target) (rag.Answer, error)) {
	var req api.CompareIntentRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}

	a, b, err := targetsFromIntent(req.CategoryA, req.CategoryB, req.FileA, req.FileB)
	if err != nil {
		writeFault(w, err)
		return
	}

	answer, err := compare(r.Context(), a, b)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, api.AnswerResponse{Answer: answer.Text, Sources: answer.Sources})
}

func CompareClausesHandler(w http.ResponseWriter, r *http.Request) {
	var req api.CompareClausesRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	if req.Clause == "" {
		writeFault(w, faults.New(faults.InvalidInput, "clause is required"))
		return
	}

	a, b, err := targetsFromIntent(req.CategoryA, req.CategoryB, req.FileA, req.FileB)
	if err != nil {
		writeFault(w, err)
		return
	}

	answer, err := _pipeline.CompareClauses(r.Context(), req.Clause, a, b)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, api.AnswerResponse{Answer: answer.Text, Sources: answer.Sources})
}

func SummaryHandler(w http.ResponseWriter, r *http.Request) {
	var req api.SummaryRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	handleIntent(w, r, pipeline.Target{Category: req.Category}, _pipeline.Summarize)
}

func SummaryFileHandler(w http.ResponseWriter, r *http.Request) {
	handleFileIntent(w, r, _pipeline.Summarize)
}

func ObligationsHandler(w http.ResponseWriter, r *http.Request) {
	var req api.SummaryRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	handleIntent(w, r, pipeline.Target{Category: req.Category}, _pipeline.FindObligations)
}

func ObligationsFileHandler(w http.ResponseWriter, r *http.Request) {
	handleFileIntent(w, r, _pipeline.FindObligations)
}

func TerminationHandler(w http.ResponseWriter, r *http.Request) {
	var req api.SummaryRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	handleIntent(w, r, pipeline.Target{Category: req.Category}, _pipeline.FindTermination)
}

func TerminationFileHandler(w http.ResponseWriter, r *http.Request) {
	handleFileIntent(w, r, _pipeline.FindTermination)
}

func handleIntent(w http.ResponseWriter, r *http.Request, target pipeline.Target, run func(ctx context.Context, target pipeline.Target) (rag.Answer, error)) {
	if !validateContext(r.Context()) {
		return
	}
	answer, err := run(r.Context(), target)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, api.AnswerResponse{Answer: answer.Text, Sources: answer.Sources})
}

func handleFileIntent(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, target pipeline.Target) (rag.Answer, error)) {
	var req api.FileRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	if req.FilePath == "" {
		writeFault(w, faults.New(faults.InvalidInput, "file_path is required"))
		return
	}
	handleIntent(w, r, pipeline.Target{FilePath: req.FilePath}, run)
}

func ExplainClauseHandler(w http.ResponseWriter, r *http.Request) {
	var req api.ClauseRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	if req.Clause == "" {
		writeFault(w, faults.New(faults.InvalidInput, "clause is required"))
		return
	}

	answer, err := _pipeline.ExplainClause(r.Context(), req.Clause, pipeline.Target{Category: req.Category})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, api.AnswerResponse{Answer: answer.Text, Sources: answer.Sources})
}

func ExplainClauseFileHandler(w http.ResponseWriter, r *http.Request) {
	var req api.ClauseFileRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}
	if req.Clause == "" || req.FilePath == "" {
		writeFault(w, faults.New(faults.InvalidInput, "clause and file_path are required"))
		return
	}

	answer, err := _pipeline.ExplainClause(r.Context(), req.Clause, pipeline.Target{FilePath: req.FilePath})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, api.AnswerResponse{Answer: answer.Text, Sources: answer.Sources})
}

func CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, _pipeline.Categories())
}

func CategorizationsHandler(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, _pipeline.Categorizations())
}

func ExportReportHandler(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}

	path, err := _pipeline.ExportReport(req.Path)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]string{"report_path": path})
}

func ClearConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req api.SessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeFault(w, err)
		return
	}

	if err := _pipeline.ClearConversation(r.Context(), req.Session); err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func ConversationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")
	turns, err := _pipeline.ConversationHistory(r.Context(), session)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeResult(w, http.StatusOK, turns)
}
