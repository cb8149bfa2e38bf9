// Package telemetry publishes run metrics for scrapes during long
// transform stages. A batch run is short-lived, so the interesting
// signals are per-stage durations and the size of what got published.
package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoexport_runs_total",
		Help: "Pipeline runs by outcome.",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoexport_stage_duration_seconds",
		Help:    "Wall time per pipeline stage.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"stage"})

	ExportedBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "geoexport_exported_bytes",
		Help: "Size of the last published artifact per source.",
	}, []string{"source"})
)

func Expose(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
	}()
}
