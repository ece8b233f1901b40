// Package metrics exposes cycle and API metrics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/amishk599/jobtrack/internal/model"
)

const (
	namespace = "jobtrack"

	sourceLabel = "source"
	effectLabel = "effect"
	stateLabel  = "state"
)

var postingsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "postings_total",
		Help:      "postings ingested, partitioned by source and upsert effect",
	},
	[]string{sourceLabel, effectLabel},
)

var deactivatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_deactivated_total",
		Help:      "jobs deactivated by the end-of-cycle sweep",
	},
	[]string{sourceLabel},
)

var sourceRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_runs_total",
		Help:      "source scrapes per cycle, partitioned by final state",
	},
	[]string{sourceLabel, stateLabel},
)

var cyclesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "ingestion cycles, partitioned by whether the sweep ran",
	},
	[]string{"result"},
)

var cycleDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "wall time of a full ingestion cycle",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	},
)

var lastCycleTimestamp = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_cycle_timestamp_seconds",
		Help:      "unix time the last completed cycle finished",
	},
)

var activeJobs = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_jobs",
		Help:      "active jobs per source after the last cycle",
	},
	[]string{sourceLabel},
)

func init() {
	prometheus.MustRegister(
		postingsTotal,
		deactivatedTotal,
		sourceRunsTotal,
		cyclesTotal,
		cycleDuration,
		lastCycleTimestamp,
		activeJobs,
	)
}

// ObserveCycle records one cycle report.
func ObserveCycle(r model.CycleReport) {
	for _, s := range r.Sources {
		postingsTotal.WithLabelValues(s.Name, string(model.EffectCreated)).Add(float64(s.New))
		postingsTotal.WithLabelValues(s.Name, string(model.EffectTouched)).Add(float64(s.Touched))
		postingsTotal.WithLabelValues(s.Name, string(model.EffectUnchanged)).Add(float64(s.Unchanged))
		postingsTotal.WithLabelValues(s.Name, "invalid").Add(float64(s.Invalid))
		postingsTotal.WithLabelValues(s.Name, "failed").Add(float64(s.Failed))
		deactivatedTotal.WithLabelValues(s.Name).Add(float64(s.Deactivated))
		sourceRunsTotal.WithLabelValues(s.Name, string(s.State)).Inc()
	}

	result := "aborted"
	if r.Swept {
		result = "swept"
		lastCycleTimestamp.Set(float64(r.FinishedAt.Unix()))
	}
	cyclesTotal.WithLabelValues(result).Inc()
	if !r.FinishedAt.IsZero() {
		cycleDuration.Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
	}
}

// UpdateActiveJobs replaces the per-source active job gauge.
func UpdateActiveJobs(bySource []model.Count) {
	activeJobs.Reset()
	for _, c := range bySource {
		activeJobs.WithLabelValues(c.Label).Set(float64(c.Count))
	}
}
