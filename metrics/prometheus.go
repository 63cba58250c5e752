package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Position router metrics collector shared by the chain daemon, the keeper
// bot and the indexer

const namespace = "perprouter"

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all router metrics
type Collector struct {
	// Request lifecycle metrics
	RequestsTotal    *prometheus.CounterVec
	QueueDepth       *prometheus.GaugeVec
	ExecutionBlocks  *prometheus.HistogramVec
	ExecutionSeconds *prometheus.HistogramVec

	// EndBlocker metrics
	EndBlockLatency *prometheus.HistogramVec
	EndBlockDrives  *prometheus.CounterVec

	// Keeper bot metrics
	BotDrivesTotal   *prometheus.CounterVec
	BotPending       *prometheus.GaugeVec
	BotSubmitLatency *prometheus.HistogramVec

	// Indexer metrics
	IndexerRecordsTotal *prometheus.CounterVec
	IndexerLastHeight   prometheus.Gauge
	IndexerErrorsTotal  *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec
	WSDroppedTotal      prometheus.Counter

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	BlockHeight prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Request lifecycle metrics
	c.RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "total",
			Help:      "Position requests by queue and lifecycle action",
		},
		[]string{"queue", "action"},
	)

	c.QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Slots between the queue cursor and its length",
		},
		[]string{"queue"},
	)

	c.ExecutionBlocks = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "execution_block_gap",
			Help:      "Blocks between request creation and execution",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100},
		},
		[]string{"queue"},
	)

	c.ExecutionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "execution_time_gap_seconds",
			Help:      "Seconds between request creation and execution",
			Buckets:   []float64{1, 5, 15, 30, 60, 180, 600, 1800},
		},
		[]string{"queue"},
	)

	// EndBlocker metrics
	c.EndBlockLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "endblock",
			Name:      "latency_ms",
			Help:      "EndBlocker latency in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"phase"},
	)

	c.EndBlockDrives = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "endblock",
			Name:      "drives_total",
			Help:      "Requests processed by the EndBlocker auto-drive",
		},
		[]string{"queue", "outcome"},
	)

	// Keeper bot metrics
	c.BotDrivesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keeperbot",
			Name:      "drives_total",
			Help:      "Batch drive transactions submitted by the keeper bot",
		},
		[]string{"queue", "status"},
	)

	c.BotPending = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "keeperbot",
			Name:      "pending",
			Help:      "Queue slots tracked as pending by the keeper bot",
		},
		[]string{"queue"},
	)

	c.BotSubmitLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "keeperbot",
			Name:      "submit_latency_ms",
			Help:      "Keeper bot transaction submit latency in milliseconds",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"queue"},
	)

	// Indexer metrics
	c.IndexerRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "records_total",
			Help:      "Lifecycle records ingested by the indexer",
		},
		[]string{"queue", "action"},
	)

	c.IndexerLastHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "last_height",
			Help:      "Last block height ingested by the indexer",
		},
	)

	c.IndexerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "errors_total",
			Help:      "Indexer errors by stage",
		},
		[]string{"stage"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.WSDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_dropped_total",
			Help:      "Messages dropped because a client outbox was full",
		},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Total rate limit hits",
		},
		[]string{"client"},
	)

	// System metrics
	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	prometheus.MustRegister(c.RequestsTotal)
	prometheus.MustRegister(c.QueueDepth)
	prometheus.MustRegister(c.ExecutionBlocks)
	prometheus.MustRegister(c.ExecutionSeconds)

	prometheus.MustRegister(c.EndBlockLatency)
	prometheus.MustRegister(c.EndBlockDrives)

	prometheus.MustRegister(c.BotDrivesTotal)
	prometheus.MustRegister(c.BotPending)
	prometheus.MustRegister(c.BotSubmitLatency)

	prometheus.MustRegister(c.IndexerRecordsTotal)
	prometheus.MustRegister(c.IndexerLastHeight)
	prometheus.MustRegister(c.IndexerErrorsTotal)

	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)
	prometheus.MustRegister(c.WSDroppedTotal)

	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.RateLimitHits)

	prometheus.MustRegister(c.BlockHeight)
}

// ============ Recording Helpers ============

// RecordRequest records a request lifecycle action (created, executed, cancelled)
func (c *Collector) RecordRequest(queue, action string) {
	c.RequestsTotal.WithLabelValues(queue, action).Inc()
}

// RecordExecutionGap records how long a request waited before execution
func (c *Collector) RecordExecutionGap(queue string, blocks, seconds int64) {
	c.ExecutionBlocks.WithLabelValues(queue).Observe(float64(blocks))
	c.ExecutionSeconds.WithLabelValues(queue).Observe(float64(seconds))
}

// SetQueueDepth sets the pending depth of a queue
func (c *Collector) SetQueueDepth(queue string, depth uint64) {
	c.QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordEndBlock records EndBlocker phase latency
func (c *Collector) RecordEndBlock(phase string, latencyMs float64) {
	c.EndBlockLatency.WithLabelValues(phase).Observe(latencyMs)
}

// RecordEndBlockDrive records the outcome counts of one auto-drive
func (c *Collector) RecordEndBlockDrive(queue string, executed, cancelled, skipped uint64) {
	c.EndBlockDrives.WithLabelValues(queue, "executed").Add(float64(executed))
	c.EndBlockDrives.WithLabelValues(queue, "cancelled").Add(float64(cancelled))
	c.EndBlockDrives.WithLabelValues(queue, "skipped").Add(float64(skipped))
}

// RecordBotDrive records a keeper bot submission
func (c *Collector) RecordBotDrive(queue, status string, latencyMs float64) {
	c.BotDrivesTotal.WithLabelValues(queue, status).Inc()
	c.BotSubmitLatency.WithLabelValues(queue).Observe(latencyMs)
}

// SetBotPending sets the number of pending slots the bot tracks for a queue
func (c *Collector) SetBotPending(queue string, pending int) {
	c.BotPending.WithLabelValues(queue).Set(float64(pending))
}

// RecordIndexed records an ingested lifecycle record
func (c *Collector) RecordIndexed(queue, action string, height int64) {
	c.IndexerRecordsTotal.WithLabelValues(queue, action).Inc()
	c.IndexerLastHeight.Set(float64(height))
}

// RecordIndexerError records an indexer failure at stage
func (c *Collector) RecordIndexerError(stage string) {
	c.IndexerErrorsTotal.WithLabelValues(stage).Inc()
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordRateLimitHit records a rejected request
func (c *Collector) RecordRateLimitHit(client string) {
	c.RateLimitHits.WithLabelValues(client).Inc()
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
}

// RecordWSDrop counts a message dropped for a slow client
func (c *Collector) RecordWSDrop() {
	c.WSDroppedTotal.Inc()
}

// UpdateBlockHeight updates the block height gauge
func (c *Collector) UpdateBlockHeight(blockHeight int64) {
	c.BlockHeight.Set(float64(blockHeight))
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
