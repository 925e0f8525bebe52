package main

import (
	"fmt"
	"net/http"

	"gigcraft.ai/internal/persistence/indexdb"
	"gigcraft.ai/internal/runs"
)

// writeMetrics emits the Prometheus text format by hand.
func writeMetrics(rw http.ResponseWriter, m *runs.Manager, idx *indexdb.SQLiteIndex) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	live, attached := m.Counts()
	fmt.Fprintf(rw, "# HELP gigcraft_runs_live Runs loaded in memory.\n")
	fmt.Fprintf(rw, "# TYPE gigcraft_runs_live gauge\n")
	fmt.Fprintf(rw, "gigcraft_runs_live %d\n", live)

	fmt.Fprintf(rw, "# HELP gigcraft_runs_attached Runs with a connected client.\n")
	fmt.Fprintf(rw, "# TYPE gigcraft_runs_attached gauge\n")
	fmt.Fprintf(rw, "gigcraft_runs_attached %d\n", attached)

	if idx == nil {
		return
	}
	s := idx.Stats()
	fmt.Fprintf(rw, "# HELP gigcraft_index_queue_depth Current index write queue depth.\n")
	fmt.Fprintf(rw, "# TYPE gigcraft_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "gigcraft_index_queue_depth %d\n", s.QueueDepth)

	fmt.Fprintf(rw, "# HELP gigcraft_index_queue_capacity Index write queue capacity.\n")
	fmt.Fprintf(rw, "# TYPE gigcraft_index_queue_capacity gauge\n")
	fmt.Fprintf(rw, "gigcraft_index_queue_capacity %d\n", s.QueueCapacity)

	fmt.Fprintf(rw, "# HELP gigcraft_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(rw, "# TYPE gigcraft_index_dropped_total counter\n")
	fmt.Fprintf(rw, "gigcraft_index_dropped_total{kind=\"run\"} %d\n", s.DropRunTotal)
	fmt.Fprintf(rw, "gigcraft_index_dropped_total{kind=\"command\"} %d\n", s.DropCommandTotal)
	fmt.Fprintf(rw, "gigcraft_index_dropped_total{kind=\"snapshot\"} %d\n", s.DropSnapshotTotal)
	fmt.Fprintf(rw, "gigcraft_index_dropped_total{kind=\"ending\"} %d\n", s.DropEndingTotal)
}
