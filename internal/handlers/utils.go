package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/clauselens/clauselens/internal/api"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/faults"
	"github.com/clauselens/clauselens/internal/pipeline"
	"github.com/clauselens/clauselens/pkg/logger_i"
)

var (
	logRH     *logger_i.Logger
	_pipeline *pipeline.Pipeline
)

func InitServices(p *pipeline.Pipeline) {
	_pipeline = p
	logRH = logger_i.NewLogger("handlers")
}

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logRH.Error("error encoding response", "error", err)
	}
}

func writeResult(w http.ResponseWriter, statusCode int, result interface{}) {
	writeJsonResponse(w, statusCode, api.Envelope{
		Success:   true,
		Result:    result,
		Timestamp: time.Now(),
	})
}

// writeFault maps the error's kind to an HTTP status and a safe message; raw
// provider errors never reach the client.
func writeFault(w http.ResponseWriter, err error) {
	kind, ok := faults.KindOf(err)
	if !ok {
		kind = "INTERNAL"
	}
	writeJsonResponse(w, faults.HTTPStatus(err), api.Envelope{
		Success:   false,
		Error:     &api.APIError{Code: string(kind), Message: faults.UserMessage(err)},
		Timestamp: time.Now(),
	})
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, api.Envelope{
		Success:   false,
		Error:     &api.APIError{Code: "BAD_REQUEST", Message: message},
		Timestamp: time.Now(),
	})
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logRH.Error("couldn't close request body", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return faults.Wrap(faults.InvalidInput, "invalid request body", err)
	}
	return nil
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.Warn("context error", "error", ctx.Err())
		return false
	}
	return true
}

func traceOf(r *http.Request) string {
	if trace, ok := r.Context().Value(config.TRACE_ID_KEY).(string); ok {
		return trace
	}
	return ""
}

// targetsFromIntent resolves the two comparison sides: each side is a
// category or a file path, never both, never neither.
func targetsFromIntent(categoryA, categoryB, fileA, fileB string) (pipeline.Target, pipeline.Target, error) {
	side := func(category string, file string, name string) (pipeline.Target, error) {
		if category != "" && file != "" {
			return pipeline.Target{}, faults.New(faults.InvalidInput, "side "+name+" must be a category or a file, not both")
		}
		if category == "" && file == "" {
			return pipeline.Target{}, faults.New(faults.InvalidInput, "side "+name+" needs a category or a file path")
		}
		return pipeline.Target{Category: category, FilePath: file}, nil
	}

	a, err := side(categoryA, fileA, "A")
	if err != nil {
		return pipeline.Target{}, pipeline.Target{}, err
	}
	b, err := side(categoryB, fileB, "B")
	if err != nil {
		return pipeline.Target{}, pipeline.Target{}, err
	}
	return a, b, nil
}
