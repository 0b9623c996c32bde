package metricsx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	kafkaConsumerLag = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kafka_consumer_lag",
			Help: "Kafka consumer lag by topic.",
		},
		[]string{"topic", "group"},
	)
	laporanSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laporan_submitted_total",
			Help: "Total queue reports accepted, by traffic status.",
		},
		[]string{"traffic_status"},
	)
	laporanRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "laporan_rejected_total",
			Help: "Total queue reports rejected at validation.",
		},
	)
	resyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregate_resync_total",
			Help: "Total aggregate resyncs, by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)
	resyncLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregate_resync_duration_seconds",
			Help:    "Aggregate resync latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	aggregateStations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aggregate_stations",
			Help: "Number of stations currently held in the aggregate set.",
		},
	)
	influxWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "influx_write_failures_total",
			Help: "Total InfluxDB write failures.",
		},
	)
	outboxDead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_dead_total",
			Help: "Total outbox events moved to dead-letter.",
		},
	)
	asynqQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asynq_queue_depth",
			Help: "Asynq queue depth by queue.",
		},
		[]string{"queue"},
	)
)

func Register() {
	prometheus.MustRegister(httpRequests, httpLatency, kafkaConsumerLag, laporanSubmitted, laporanRejected, resyncs, resyncLatency, aggregateStations, influxWriteFailures, outboxDead, asynqQueueDepth)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		status := strconv.Itoa(lrw.statusCode)
		httpRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpLatency.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}

func SetKafkaLag(topic string, group string, lag int64) {
	kafkaConsumerLag.WithLabelValues(topic, group).Set(float64(lag))
}

func IncLaporanSubmitted(trafficStatus string) {
	laporanSubmitted.WithLabelValues(trafficStatus).Inc()
}

func IncLaporanRejected() {
	laporanRejected.Inc()
}

func IncResync(trigger string, outcome string) {
	resyncs.WithLabelValues(trigger, outcome).Inc()
}

func ObserveResyncLatency(d time.Duration) {
	resyncLatency.Observe(d.Seconds())
}

func SetAggregateStations(n int) {
	aggregateStations.Set(float64(n))
}

func IncInfluxWriteFailure() {
	influxWriteFailures.Inc()
}

func IncOutboxDead() {
	outboxDead.Inc()
}

func SetAsynqQueueDepth(queue string, depth int) {
	asynqQueueDepth.WithLabelValues(queue).Set(float64(depth))
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
