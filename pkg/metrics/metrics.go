package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Entity counts, by set.
	NodesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstore_nodes_total",
			Help: "Total number of live nodes in the workspace",
		},
	)

	AtomsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstore_atoms_total",
			Help: "Total number of live atoms in the workspace",
		},
	)

	EdgesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphstore_edges_total",
			Help: "Total number of live edges in the workspace",
		},
	)

	// Set-operation counters, by entity kind and outcome.
	SetOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphstore_set_ops_total",
			Help: "Total number of Set calls by entity kind and whether the write was applied",
		},
		[]string{"kind", "applied"},
	)

	// Barrier metrics.
	BarrierDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphstore_barrier_duration_seconds",
			Help:    "Time taken to run the write-read barrier",
			Buckets: prometheus.DefBuckets,
		},
	)

	BarrierRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "graphstore_barrier_runs_total",
			Help: "Total number of barrier invocations",
		},
	)

	BarrierDeletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphstore_barrier_deletions_total",
			Help: "Total number of entities cascade-deleted by the barrier, by kind",
		},
		[]string{"kind"},
	)

	// Sync protocol metrics.
	SyncVersionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphstore_sync_version_duration_seconds",
			Help:    "Time taken to produce a sync version snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	SyncActionsDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphstore_sync_actions_duration_seconds",
			Help:    "Time taken to compute a sync action set for a peer version",
			Buckets: prometheus.DefBuckets,
		},
	)

	SyncJoinDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphstore_sync_join_duration_seconds",
			Help:    "Time taken to replay a peer's action set",
			Buckets: prometheus.DefBuckets,
		},
	)

	SyncActionsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphstore_sync_actions_sent_total",
			Help: "Total number of actions sent to peers during SyncActions, by kind",
		},
		[]string{"kind"},
	)

	SyncActionsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphstore_sync_actions_received_total",
			Help: "Total number of actions replayed during SyncJoin, by kind",
		},
		[]string{"kind"},
	)

	// Backing store metrics.
	KVOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphstore_kv_op_duration_seconds",
			Help:    "Backing store operation duration in seconds, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	CommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "graphstore_commits_total",
			Help: "Total number of workspace Commit calls",
		},
	)
)

func init() {
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(AtomsTotal)
	prometheus.MustRegister(EdgesTotal)
	prometheus.MustRegister(SetOpsTotal)

	prometheus.MustRegister(BarrierDuration)
	prometheus.MustRegister(BarrierRunsTotal)
	prometheus.MustRegister(BarrierDeletionsTotal)

	prometheus.MustRegister(SyncVersionDuration)
	prometheus.MustRegister(SyncActionsDuration)
	prometheus.MustRegister(SyncJoinDuration)
	prometheus.MustRegister(SyncActionsSent)
	prometheus.MustRegister(SyncActionsReceived)

	prometheus.MustRegister(KVOpDuration)
	prometheus.MustRegister(CommitsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
