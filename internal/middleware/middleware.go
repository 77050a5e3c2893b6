package middleware

import (
	"net/http"
	"strconv"

	"github.com/clauselens/clauselens/internal/handlers"
	"github.com/clauselens/clauselens/internal/metrics"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var (
	HealthHandler              = Wrap(handlers.HealthHandler)
	StatusHandler              = Wrap(handlers.StatusHandler)
	UploadHandler              = Wrap(handlers.UploadHandler)
	ProcessHandler             = Wrap(handlers.ProcessHandler)
	LoadStoresHandler          = Wrap(handlers.LoadStoresHandler)
	DeleteStoresHandler        = Wrap(handlers.DeleteStoresHandler)
	QueryHandler               = Wrap(handlers.QueryHandler)
	QueryCategoryHandler       = Wrap(handlers.QueryCategoryHandler)
	QueryFileHandler           = Wrap(handlers.QueryFileHandler)
	CompareHandler             = Wrap(handlers.CompareHandler)
	CompareFilesHandler        = Wrap(handlers.CompareFilesHandler)
	CompareObligationsHandler  = Wrap(handlers.CompareObligationsHandler)
	CompareTerminationHandler  = Wrap(handlers.CompareTerminationHandler)
	CompareClausesHandler      = Wrap(handlers.CompareClausesHandler)
	SummaryHandler             = Wrap(handlers.SummaryHandler)
	SummaryFileHandler         = Wrap(handlers.SummaryFileHandler)
	ObligationsHandler         = Wrap(handlers.ObligationsHandler)
	ObligationsFileHandler     = Wrap(handlers.ObligationsFileHandler)
	TerminationHandler         = Wrap(handlers.TerminationHandler)
	TerminationFileHandler     = Wrap(handlers.TerminationFileHandler)
	ExplainClauseHandler       = Wrap(handlers.ExplainClauseHandler)
	ExplainClauseFileHandler   = Wrap(handlers.ExplainClauseFileHandler)
	CategoriesHandler          = Wrap(handlers.CategoriesHandler)
	CategorizationsHandler     = Wrap(handlers.CategorizationsHandler)
	ExportReportHandler        = Wrap(handlers.ExportReportHandler)
	ClearConversationHandler   = Wrap(handlers.ClearConversationHandler)
	ConversationHistoryHandler = Wrap(handlers.ConversationHistoryHandler)
)

// Wrap runs every request through trace injection and rate limiting, and
// records the response status for metrics.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200}
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")

	re = injectTrace(re)
	re = rateLimiter(re)
	return re
}

func handleBadRequest(re requestResponseStruct) {
	re.logger.Warn("bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "ip", re.req.RemoteAddr)
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, re.badRequest.errorMessage)
}
