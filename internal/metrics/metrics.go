package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "obsidian"

// 诊断来源
const (
	SourceAPI     = "api"
	SourceWatcher = "watcher"
)

var (
	// 错误码解析结果：resolved / unresolved / none（非 Custom 错误）
	enrichTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_total",
			Help:      "Enrich calls by resolution result and error source",
		},
		[]string{"result", "source"},
	)

	diagnoseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diagnose_duration_seconds",
			Help:      "End-to-end diagnosis latency",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	cacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by result",
		},
		[]string{"result"},
	)

	publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_publish_total",
			Help:      "Reports published to Kafka by result",
		},
		[]string{"result"},
	)

	watcherTxTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_transactions_total",
			Help:      "Transactions seen by the stream watcher",
		},
		[]string{"status"},
	)

	idlSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idl_sync_total",
			Help:      "On-chain IDL sync attempts per program",
		},
		[]string{"result"},
	)

	streamBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_stream_bytes_total",
			Help:      "Serialized size of block updates received from the gRPC stream",
		},
	)

	// stream 跳号的 slot 补扫结果：empty / missing / unchecked
	gapSlots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_gap_slots_total",
			Help:      "Slots skipped by the stream, by backfill outcome",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		enrichTotal,
		diagnoseDuration,
		cacheTotal,
		publishTotal,
		watcherTxTotal,
		idlSyncTotal,
		streamBytes,
		gapSlots,
	)
}

// RecordEnrich source 为空表示未解析
func RecordEnrich(result, source string) {
	if source == "" {
		source = "none"
	}
	enrichTotal.WithLabelValues(result, source).Inc()
}

func ObserveDiagnose(source string, start time.Time) {
	diagnoseDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

func RecordCache(result string) {
	cacheTotal.WithLabelValues(result).Inc()
}

func RecordPublish(result string, n int) {
	publishTotal.WithLabelValues(result).Add(float64(n))
}

func RecordWatcherTx(status string) {
	watcherTxTotal.WithLabelValues(status).Inc()
}

func RecordIdlSync(result string) {
	idlSyncTotal.WithLabelValues(result).Inc()
}

func RecordGapSlots(result string, n int) {
	if n > 0 {
		gapSlots.WithLabelValues(result).Add(float64(n))
	}
}

func AddStreamBytes(n int) {
	if n > 0 {
		streamBytes.Add(float64(n))
	}
}
