package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnapshotsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mowd_snapshots_fetched_total",
		Help: "Number of full device snapshots fetched from the vendor API.",
	})

	DeltasApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mowd_deltas_applied_total",
		Help: "Number of stream delta groups applied to the sink.",
	}, []string{"group"})

	StreamReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mowd_stream_reconnects_total",
		Help: "Number of times the event stream connection was reopened.",
	})

	CommandsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mowd_commands_dispatched_total",
		Help: "Number of commands sent to the vendor API, by kind and result.",
	}, []string{"kind", "result"})
)
