package metrics

import "github.com/prometheus/client_golang/prometheus"

// Geocoder outcomes.
const (
	GeocodeHit    = "hit"
	GeocodeMiss   = "miss"
	GeocodeError  = "error"
	GeocodeCached = "cached"
)

// Search cache outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Outbox relay outcomes.
const (
	OutboxPublished = "published"
	OutboxRetry     = "retry"
	OutboxParked    = "parked"
)

// OutcomeCounter counts discrete outcomes of a dependency call.
type OutcomeCounter struct {
	counter *prometheus.CounterVec
}

// NewGeocodeMetrics registers geocode_requests_total{outcome}.
func NewGeocodeMetrics(reg prometheus.Registerer) *OutcomeCounter {
	return newOutcomeCounter(reg, "geocode_requests_total", "Geocoder lookups by outcome.")
}

// NewSearchCacheMetrics registers search_cache_requests_total{outcome}.
func NewSearchCacheMetrics(reg prometheus.Registerer) *OutcomeCounter {
	return newOutcomeCounter(reg, "search_cache_requests_total", "Property search cache lookups by outcome.")
}

// NewOutboxMetrics registers outbox_events_total{outcome}.
func NewOutboxMetrics(reg prometheus.Registerer) *OutcomeCounter {
	return newOutcomeCounter(reg, "outbox_events_total", "Outbox rows handled by the relay, by outcome.")
}

func newOutcomeCounter(reg prometheus.Registerer, name, help string) *OutcomeCounter {
	if reg == nil {
		return &OutcomeCounter{}
	}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, []string{"outcome"})
	reg.MustRegister(counter)
	return &OutcomeCounter{counter: counter}
}

func (o *OutcomeCounter) Inc(outcome string) {
	if o == nil || o.counter == nil {
		return
	}
	o.counter.WithLabelValues(normalizeLabel(outcome)).Inc()
}
