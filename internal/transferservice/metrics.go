package transferservice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics
var (
	transfersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lynx_transfers_created_total",
		Help: "Transfers accepted for processing",
	})

	transfersFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lynx_transfers_finished_total",
		Help: "Transfers that reached a terminal status",
	}, []string{"status", "reason"})

	stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lynx_transfer_stage_duration_seconds",
		Help:    "Time spent reaching each transfer stage, including the modeled clearing delay",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
	}, []string{"stage"})

	transfersInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lynx_transfers_in_flight",
		Help: "Transfers whose task has not finished yet",
	})
)
