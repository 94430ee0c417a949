package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Watcher counters, partitioned by network name.

var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "burnwatch",
		Subsystem: "watcher",
		Name:      "cycles_total",
		Help:      "Completed poll cycles",
	}, []string{"network"})

	ScanFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "burnwatch",
		Subsystem: "watcher",
		Name:      "scan_failures_total",
		Help:      "Log scans that failed after retries were exhausted",
	}, []string{"network"})

	EventsNotified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "burnwatch",
		Subsystem: "watcher",
		Name:      "events_notified_total",
		Help:      "Burn events delivered to the notifier",
	}, []string{"network"})

	EventFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "burnwatch",
		Subsystem: "watcher",
		Name:      "event_failures_total",
		Help:      "Log entries skipped because decoding or dispatch failed",
	}, []string{"network", "stage"})

	CheckpointHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "burnwatch",
		Subsystem: "watcher",
		Name:      "checkpoint_height",
		Help:      "Last block height written to the checkpoint store",
	}, []string{"network"})

	RPCFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "burnwatch",
		Subsystem: "rpc",
		Name:      "failures_total",
		Help:      "Failed JSON-RPC calls by method and error kind",
	}, []string{"network", "method", "kind"})
)
