package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// TMDBRequestsTotal counts remote catalog API requests by endpoint and outcome.
	TMDBRequestsTotal *prometheus.CounterVec
	// FetchMoviesTotal counts ingested movies by outcome (ok, skipped).
	FetchMoviesTotal *prometheus.CounterVec
)

// RegisterFetchMetrics registers fetch-pipeline metrics explicitly (no init()),
// so tools embedding only the query engine carry no fetch series.
func RegisterFetchMetrics() {
	if TMDBRequestsTotal != nil {
		return
	}

	TMDBRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedex",
		Name:      "tmdb_requests_total",
		Help:      "Total TMDB API requests",
	}, []string{"endpoint", "status"})

	FetchMoviesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinedex",
		Name:      "fetch_movies_total",
		Help:      "Movies processed by the ingest pipeline",
	}, []string{"outcome"})

	prometheus.MustRegister(TMDBRequestsTotal, FetchMoviesTotal)
}
