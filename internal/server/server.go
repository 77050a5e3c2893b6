package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/middleware"
	"github.com/clauselens/clauselens/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	StopPipeline     func()
	CloseServices    context.CancelFunc
}

func CreateServer(listenAddr string) {
	_logger = logger_i.NewLogger("server")

	r := chi.NewRouter()

	r.Get("/health", middleware.HealthHandler)
	r.Get("/status", middleware.StatusHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/upload", middleware.UploadHandler)
	r.Post("/process", middleware.ProcessHandler)
	r.Post("/load_stores", middleware.LoadStoresHandler)
	r.Post("/stores/delete", middleware.DeleteStoresHandler)

	r.Post("/query", middleware.QueryHandler)
	r.Post("/query_category/{category}", middleware.QueryCategoryHandler)
	r.Post("/query_file", middleware.QueryFileHandler)

	r.Post("/compare", middleware.CompareHandler)
	r.Post("/compare_files", middleware.CompareFilesHandler)
	r.Post("/compare_obligations", middleware.CompareObligationsHandler)
	r.Post("/compare_termination", middleware.CompareTerminationHandler)
	r.Post("/compare_clauses", middleware.CompareClausesHandler)

	r.Post("/summary", middleware.SummaryHandler)
	r.Post("/summary_file", middleware.SummaryFileHandler)
	r.Post("/obligations", middleware.ObligationsHandler)
	r.Post("/obligations_file", middleware.ObligationsFileHandler)
	r.Post("/termination", middleware.TerminationHandler)
	r.Post("/termination_file", middleware.TerminationFileHandler)
	r.Post("/explain_clause", middleware.ExplainClauseHandler)
	r.Post("/explain_clause_file", middleware.ExplainClauseFileHandler)

	r.Get("/categories", middleware.CategoriesHandler)
	r.Get("/categorizations", middleware.CategorizationsHandler)
	r.Post("/export_report", middleware.ExportReportHandler)

	r.Post("/conversation/clear", middleware.ClearConversationHandler)
	r.Get("/conversation/history", middleware.ConversationHistoryHandler)

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("server is listening", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("could not shutdown gracefully", "error", err)
		}

		shutdownParams.StopPipeline()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("graceful shutdown complete")
	case <-ctx.Done():
		_logger.Info("forced shutdown")
		os.Exit(1)
	}
}
