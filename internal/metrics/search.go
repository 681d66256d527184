package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and external-call Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crosslink",
			Name:      "searches_total",
			Help:      "Total number of vector retrievals",
		},
	)

	ExpansionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crosslink",
			Name:      "expansions_total",
			Help:      "Total number of retrievals that triggered candidate pool expansion",
		},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crosslink",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crosslink",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	RerankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crosslink",
			Name:      "rerank_requests_total",
			Help:      "Total number of rerank requests",
		},
		[]string{"model", "status"},
	)

	RerankRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crosslink",
			Name:      "rerank_request_duration_seconds",
			Help:      "Rerank request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)
)

var registered bool

// Register registers all crosslink Prometheus metrics. Must be called once
// from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(ExpansionsTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(RerankRequestsTotal)
	prometheus.MustRegister(RerankRequestDuration)
	registered = true
}
