/*
Package metrics provides Prometheus metrics collection and exposition
for graphstore.

The metrics package defines and registers graphstore's metrics using
the Prometheus client library: entity counts per set, barrier and sync
latency, and backing-store operation latency. Metrics are exposed via
an HTTP handler for scraping by a Prometheus server.

# Metric categories

Entity counts (gauges):
  - graphstore_nodes_total, graphstore_atoms_total, graphstore_edges_total
  - updated periodically by a Collector, since counting live entities
    requires a table scan and is too expensive to do on every request

Set operations (counter, by kind and applied):
  - graphstore_set_ops_total{kind="node|atom|edge",applied="true|false"}

Barrier (histogram + counters):
  - graphstore_barrier_duration_seconds
  - graphstore_barrier_runs_total
  - graphstore_barrier_deletions_total{kind="node|atom|edge"}

Sync protocol (histograms + counters):
  - graphstore_sync_version_duration_seconds
  - graphstore_sync_actions_duration_seconds
  - graphstore_sync_join_duration_seconds
  - graphstore_sync_actions_sent_total{kind}, graphstore_sync_actions_received_total{kind}

Backing store:
  - graphstore_kv_op_duration_seconds{op}
  - graphstore_commits_total

# Usage

	mux.Handle("/metrics", metrics.Handler())

	collector := metrics.NewCollector(func() (int, int, int, error) {
		s, err := ws.Stats()
		return s.Nodes, s.Atoms, s.Edges, err
	})
	collector.Start()
	defer collector.Stop()

	timer := metrics.NewTimer()
	events, err := ws.Barrier()
	timer.ObserveDuration(metrics.BarrierDuration)
*/
package metrics
