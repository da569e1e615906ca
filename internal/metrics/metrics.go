// Package metrics records per-run pipeline counters with Prometheus.
//
// A batch run has no HTTP surface to scrape, so the registry is written to a
// node_exporter textfile at the end of the run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eventmerge"

// Stage names used as the "stage" label
const (
	StageRaw        = "raw"
	StageNormalized = "normalized"
	StageDeduped    = "deduped"
	StageMerged     = "merged"
	StageAdmitted   = "admitted"
	StageStored     = "stored"
)

// Drop reasons used as the "reason" label
const (
	ReasonMalformed = "malformed"
	ReasonSignature = "signature_duplicate"
	ReasonMerged    = "merged_duplicate"
	ReasonPersisted = "persisted"
)

// Run holds the collectors for one pipeline run. All methods are safe to call
// on a nil *Run, which records nothing.
type Run struct {
	registry *prometheus.Registry

	stageRecords     *prometheus.GaugeVec
	droppedTotal     *prometheus.CounterVec
	groupsMerged     prometheus.Counter
	locationsCreated prometheus.Counter
	locationsReused  prometheus.Counter
	runDuration      prometheus.Gauge
	lastSuccessTS    prometheus.Gauge
}

// New creates a Run with its own registry
func New() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		stageRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_records",
			Help:      "Number of records leaving each pipeline stage.",
		}, []string{"stage"}),
		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records removed by the pipeline, by reason.",
		}, []string{"reason"}),
		groupsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_merged_total",
			Help:      "Source-URL groups collapsed into one record.",
		}),
		locationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locations_created_total",
			Help:      "Location records minted from venue descriptions.",
		}),
		locationsReused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locations_reused_total",
			Help:      "Events attached to an already known venue.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastSuccessTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	r.registry.MustRegister(
		r.stageRecords,
		r.droppedTotal,
		r.groupsMerged,
		r.locationsCreated,
		r.locationsReused,
		r.runDuration,
		r.lastSuccessTS,
	)
	return r
}

// Registry exposes the underlying registry, mainly for tests
func (r *Run) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveStage records how many records left a stage
func (r *Run) ObserveStage(stage string, n int) {
	if r == nil {
		return
	}
	r.stageRecords.WithLabelValues(stage).Set(float64(n))
}

// AddDropped counts records removed for the given reason
func (r *Run) AddDropped(reason string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.droppedTotal.WithLabelValues(reason).Add(float64(n))
}

// AddGroupsMerged counts merged source-URL groups
func (r *Run) AddGroupsMerged(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.groupsMerged.Add(float64(n))
}

// AddLocations counts minted and reused locations
func (r *Run) AddLocations(created, reused int) {
	if r == nil {
		return
	}
	if created > 0 {
		r.locationsCreated.Add(float64(created))
	}
	if reused > 0 {
		r.locationsReused.Add(float64(reused))
	}
}

// ObserveDuration records the wall time of the run
func (r *Run) ObserveDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Set(d.Seconds())
}

// MarkSuccess stamps the time the run finished successfully
func (r *Run) MarkSuccess(at time.Time) {
	if r == nil {
		return
	}
	r.lastSuccessTS.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in the Prometheus text format. The write
// is atomic, so a node_exporter collector never reads a partial file.
func (r *Run) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
