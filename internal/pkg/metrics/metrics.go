package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// HTTPRequestsTotal counts handled API requests by route and status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_aggregator_http_requests_total",
			Help: "Handled HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)

	// UpstreamCallsTotal counts outbound calls to chain RPCs, explorers and
	// the token-discovery index.
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_aggregator_upstream_calls_total",
			Help: "Outbound upstream calls by chain, operation and outcome.",
		},
		[]string{"chain", "op", "outcome"},
	)

	// MetadataCacheHits counts metadata cache hits below the TTL.
	MetadataCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "token_aggregator_metadata_cache_hits_total",
		Help: "Token metadata served from the TTL cache.",
	})

	// MetadataCacheMisses counts misses and stale entries that triggered an
	// upstream fetch.
	MetadataCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "token_aggregator_metadata_cache_misses_total",
		Help: "Token metadata cache misses (including stale entries).",
	})

	// TokensFilteredTotal counts tokens removed from output, by reason.
	TokensFilteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_aggregator_tokens_filtered_total",
			Help: "Tokens dropped before output by chain and reason.",
		},
		[]string{"chain", "reason"},
	)
)

// Filter reasons used with TokensFilteredTotal.
const (
	ReasonSpam        = "spam"
	ReasonNoMetadata  = "metadata_absent"
	ReasonNoBalance   = "balance_absent"
	ReasonNonFungible = "non_fungible"
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once from main.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		UpstreamCallsTotal,
		MetadataCacheHits,
		MetadataCacheMisses,
		TokensFilteredTotal,
	)
}
