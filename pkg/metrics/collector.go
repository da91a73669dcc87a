package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record is a compact, in-memory trace of one strategy decision, kept
// for the status API and TUI to read back without round-tripping
// through Prometheus.
type Record struct {
	OpportunityID string
	Kind          string // "sandwich" or "arbitrage"
	NetProfitWei  string
	Submitted     bool
	Timestamp     time.Time
}

// CollectorConfig bounds the in-memory record window.
type CollectorConfig struct {
	MaxRecords int
}

// PrometheusMetrics holds the engine's exported counters/gauges.
type PrometheusMetrics struct {
	opportunitiesDetected *prometheus.CounterVec
	bundlesSubmitted      *prometheus.CounterVec
	bundlesRejected       prometheus.Counter
	netProfitWei          *prometheus.GaugeVec
	handleLatency         prometheus.Histogram
	dedupeSetSize         prometheus.Gauge
	inflightDropped       prometheus.Counter
}

// Collector is the in-process counterpart to PrometheusMetrics: it keeps
// a short rolling window of recent strategy outcomes for the status API
// and TUI, alongside pushing the same events into Prometheus.
type Collector struct {
	mu      sync.RWMutex
	records []Record
	max     int

	prom *PrometheusMetrics
}

func defaultConfig(config *CollectorConfig) *CollectorConfig {
	if config == nil {
		return &CollectorConfig{MaxRecords: 1000}
	}
	if config.MaxRecords <= 0 {
		config.MaxRecords = 1000
	}
	return config
}

// NewCollector creates a collector registered against the default
// Prometheus registry.
func NewCollector(config *CollectorConfig) *Collector {
	config = defaultConfig(config)
	return &Collector{
		records: make([]Record, 0, config.MaxRecords),
		max:     config.MaxRecords,
		prom:    newPrometheusMetrics(promauto.With(prometheus.DefaultRegisterer)),
	}
}

// NewCollectorWithRegistry creates a collector registered against a
// caller-supplied registry, for test isolation.
func NewCollectorWithRegistry(config *CollectorConfig, registry *prometheus.Registry) *Collector {
	config = defaultConfig(config)
	return &Collector{
		records: make([]Record, 0, config.MaxRecords),
		max:     config.MaxRecords,
		prom:    newPrometheusMetrics(promauto.With(registry)),
	}
}

func newPrometheusMetrics(factory promauto.Factory) *PrometheusMetrics {
	return &PrometheusMetrics{
		opportunitiesDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mev_opportunities_detected_total",
			Help: "Opportunities that survived search and simulation, by kind.",
		}, []string{"kind"}),
		bundlesSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mev_bundles_submitted_total",
			Help: "Bundles submitted to the relay, by kind.",
		}, []string{"kind"}),
		bundlesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "mev_bundles_rejected_total",
			Help: "Best-ranked candidate opportunities rejected on their way to the relay (encoding, simulation, non-positive net profit, bundle build, or relay failure).",
		}),
		netProfitWei: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mev_net_profit_wei",
			Help: "Net profit of the most recently submitted bundle, by kind.",
		}, []string{"kind"}),
		handleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mev_handle_transaction_seconds",
			Help:    "Wall-clock time spent searching, simulating, and submitting for one observed transaction.",
			Buckets: prometheus.DefBuckets,
		}),
		dedupeSetSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mev_dedupe_set_size",
			Help: "Current size of the mempool ingest dedup set.",
		}),
		inflightDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "mev_inflight_dropped_total",
			Help: "Raw subscription messages dropped because the ingest inflight buffer was full.",
		}),
	}
}

// RecordSubmission appends a submitted-bundle record and updates
// Prometheus counters/gauges.
func (c *Collector) RecordSubmission(opportunityID, kind, netProfitWei string) {
	c.append(Record{OpportunityID: opportunityID, Kind: kind, NetProfitWei: netProfitWei, Submitted: true, Timestamp: time.Now()})
	c.prom.opportunitiesDetected.WithLabelValues(kind).Inc()
	c.prom.bundlesSubmitted.WithLabelValues(kind).Inc()
	if profit, err := strconv.ParseFloat(netProfitWei, 64); err == nil {
		c.prom.netProfitWei.WithLabelValues(kind).Set(profit)
	}
}

// RecordRejection updates rejection counters without an opportunity ID
// (the common case: search or simulation never produced one).
func (c *Collector) RecordRejection() {
	c.prom.bundlesRejected.Inc()
}

// ObserveHandleLatency records how long one HandleTransaction call took.
func (c *Collector) ObserveHandleLatency(d time.Duration) {
	c.prom.handleLatency.Observe(d.Seconds())
}

// SetDedupeSetSize reports the ingest dedup set's current occupancy.
func (c *Collector) SetDedupeSetSize(n int) {
	c.prom.dedupeSetSize.Set(float64(n))
}

// AddInflightDropped increments the dropped-message counter by delta.
func (c *Collector) AddInflightDropped(delta int64) {
	if delta > 0 {
		c.prom.inflightDropped.Add(float64(delta))
	}
}

func (c *Collector) append(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	if len(c.records) > c.max {
		c.records = c.records[len(c.records)-c.max:]
	}
}

// Recent returns up to n of the most recently recorded outcomes, newest
// last.
func (c *Collector) Recent(n int) []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 || n > len(c.records) {
		n = len(c.records)
	}
	out := make([]Record, n)
	copy(out, c.records[len(c.records)-n:])
	return out
}
