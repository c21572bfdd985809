package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/occupation-matcher/internal/types"
)

const namespace = "occupation_matcher"

// Metrics holds the prometheus collectors of the matcher. One value serves
// the resolver, index, search log and matching engine.
type Metrics struct {
	resolveDuration *prometheus.HistogramVec
	resolveTotal    *prometheus.CounterVec
	indexBuilds     *prometheus.CounterVec
	indexDuration   prometheus.Histogram
	indexSize       *prometheus.GaugeVec
	idfSnapshot     *prometheus.GaugeVec
	searchLogged    *prometheus.CounterVec
	searchDropped   prometheus.Counter
	matchDuration   prometheus.Histogram
	matchTotal      *prometheus.CounterVec
	matchReturned   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Duration of concept resolutions by winning tier.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"tier"}),
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Concept resolutions by winning tier.",
		}, []string{"tier"}),
		indexBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Requirement index builds by outcome.",
		}, []string{"outcome"}),
		indexDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Duration of requirement index builds.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		indexSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_size",
			Help:      "Size of the active requirement index.",
		}, []string{"kind"}),
		idfSnapshot: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "idf_snapshot",
			Help:      "Active IDF snapshot: weights and total occupations.",
		}, []string{"kind"}),
		searchLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_log_writes_total",
			Help:      "Search log writes by sink and outcome.",
		}, []string{"sink", "outcome"}),
		searchDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_log_dropped_total",
			Help:      "Search log entries dropped because the queue was full or closed.",
		}),
		matchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Duration of profile matches.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		matchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_total",
			Help:      "Profile matches by outcome.",
		}, []string{"outcome"}),
		matchReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_returned_candidates",
			Help:      "Number of candidates returned per match.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
	}

	reg.MustRegister(
		m.resolveDuration, m.resolveTotal,
		m.indexBuilds, m.indexDuration, m.indexSize, m.idfSnapshot,
		m.searchLogged, m.searchDropped,
		m.matchDuration, m.matchTotal, m.matchReturned,
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveResolve records one resolution
func (m *Metrics) ObserveResolve(tier types.MatchTier, d time.Duration) {
	m.resolveTotal.WithLabelValues(string(tier)).Inc()
	m.resolveDuration.WithLabelValues(string(tier)).Observe(d.Seconds())
}

// ObserveIndexBuild records one index build
func (m *Metrics) ObserveIndexBuild(d time.Duration, err error) {
	m.indexBuilds.WithLabelValues(outcome(err)).Inc()
	m.indexDuration.Observe(d.Seconds())
}

// SetIndexSize records the size of the active index
func (m *Metrics) SetIndexSize(occupations, concepts, links int) {
	m.indexSize.WithLabelValues("occupations").Set(float64(occupations))
	m.indexSize.WithLabelValues("concepts").Set(float64(concepts))
	m.indexSize.WithLabelValues("links").Set(float64(links))
}

// SetIdfSnapshot records the active IDF snapshot
func (m *Metrics) SetIdfSnapshot(weights, totalOccupations int) {
	m.idfSnapshot.WithLabelValues("weights").Set(float64(weights))
	m.idfSnapshot.WithLabelValues("total_occupations").Set(float64(totalOccupations))
}

// SearchLogged records one sink write
func (m *Metrics) SearchLogged(sink string, err error) {
	m.searchLogged.WithLabelValues(sink, outcome(err)).Inc()
}

// SearchDropped records one dropped entry
func (m *Metrics) SearchDropped() {
	m.searchDropped.Inc()
}

// ObserveMatch records one match call
func (m *Metrics) ObserveMatch(d time.Duration, returned int, err error) {
	m.matchTotal.WithLabelValues(outcome(err)).Inc()
	m.matchDuration.Observe(d.Seconds())
	if err == nil {
		m.matchReturned.Observe(float64(returned))
	}
}

// Handler serves the metrics of g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
