package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var documentsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "documents_in_flight",
	Help: "Number of documents queued or being processed",
})

var activeIngestWorkers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_ingest_workers",
	Help: "Number of active ingest workers",
})

var documentsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "documents_processed_total",
	Help: "Processed documents labelled by outcome",
}, []string{"outcome"})

var stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pipeline_stage_latency_seconds",
	Help:    "Latency of pipeline stages and external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
}, []string{"stage"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) CaptureWriteHeaderMetrics(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementDocumentsInFlight() {
	documentsInFlight.Inc()
}

func DecrementDocumentsInFlight() {
	documentsInFlight.Dec()
}

func IncrementActiveIngestWorkers() {
	activeIngestWorkers.Inc()
}

func DecrementActiveIngestWorkers() {
	activeIngestWorkers.Dec()
}

func CountDocumentProcessed(outcome string) {
	documentsProcessedTotal.WithLabelValues(outcome).Inc()
}

func CaptureStageMetrics(stage string, timeElapsed time.Duration) {
	stageLatency.WithLabelValues(stage).Observe(timeElapsed.Seconds())
}
