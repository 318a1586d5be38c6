package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DocumentsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "luminai_documents_ingested_total",
			Help: "Total documents fragmented, embedded and upserted",
		},
	)

	FragmentsEmbedded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "luminai_fragments_embedded_total",
			Help: "Total fragments embedded into the vector index",
		},
	)

	RetrievedChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "luminai_retrieved_chunks",
			Help:    "Chunks returned per retrieval query",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
	)

	SummaryGroups = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "luminai_summary_groups",
			Help:    "Summarization groups packed per request",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	GroupsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "luminai_summary_groups_skipped_total",
			Help: "Groups dropped after a failed or rejected completion",
		},
	)

	SummariesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luminai_summaries_generated_total",
			Help: "Summarization requests by outcome",
		},
		[]string{"outcome"},
	)

	CompletionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luminai_completion_attempts_total",
			Help: "Completion service calls by use",
		},
		[]string{"use"},
	)

	Teardowns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "luminai_teardowns_total",
			Help: "Teardown operations by target and outcome",
		},
		[]string{"target", "outcome"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "luminai_request_duration_seconds",
			Help:    "Request duration by endpoint",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)
)

func Init() {
	prometheus.MustRegister(DocumentsIngested)
	prometheus.MustRegister(FragmentsEmbedded)
	prometheus.MustRegister(RetrievedChunks)
	prometheus.MustRegister(SummaryGroups)
	prometheus.MustRegister(GroupsSkipped)
	prometheus.MustRegister(SummariesGenerated)
	prometheus.MustRegister(CompletionAttempts)
	prometheus.MustRegister(Teardowns)
	prometheus.MustRegister(RequestDuration)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
