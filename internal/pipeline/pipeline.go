// Package pipeline runs the dedup-and-merge stages over one batch of scraped
// records.
//
// A run is a pure, synchronous transform: the caller loads raw records, the
// persisted store and the location registry, and receives the new store
// contents back. Nothing is read or written here.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/eventmerge/internal/community"
	"github.com/pfrederiksen/eventmerge/internal/dedup"
	"github.com/pfrederiksen/eventmerge/internal/event"
	"github.com/pfrederiksen/eventmerge/internal/location"
	"github.com/pfrederiksen/eventmerge/internal/logger"
	"github.com/pfrederiksen/eventmerge/internal/metrics"
)

// Input is the materialized state a run works on
type Input struct {
	Raw       []event.Raw
	Persisted []*event.Record
	Locations []*location.Record
}

// Options configure a run. The zero value uses the default community table,
// host matching, no metrics and the package-level logger.
type Options struct {
	Communities *community.Table
	Matcher     *dedup.URLMatcher
	Metrics     *metrics.Run
	Logger      *logger.Logger
	// RunID overrides the generated run identifier
	RunID string
}

// Stats counts what each stage did
type Stats struct {
	RunID               string        `json:"run_id"`
	Raw                 int           `json:"raw"`
	Malformed           int           `json:"malformed"`
	Normalized          int           `json:"normalized"`
	SignatureDuplicates int           `json:"signature_duplicates"`
	MergedGroups        int           `json:"merged_groups"`
	MergedDuplicates    int           `json:"merged_duplicates"`
	AlreadyPersisted    int           `json:"already_persisted"`
	Admitted            int           `json:"admitted"`
	LocationsCreated    int           `json:"locations_created"`
	LocationsReused     int           `json:"locations_reused"`
	Stored              int           `json:"stored"`
	Duration            time.Duration `json:"duration_ns"`
}

// Result is the outcome of a run
type Result struct {
	// Admitted are the new canonical events, in output order
	Admitted []*event.Record
	// Events is the store to write: persisted events followed by Admitted
	Events []*event.Record
	// Locations is the registry to write: existing entries followed by created ones
	Locations []*location.Record
	// CreatedLocations are the entries minted during this run
	CreatedLocations []*location.Record
	// VenueIndex maps venue signatures to location IDs after this run
	VenueIndex location.VenueIndex
	Stats      Stats
}

// Run executes normalize, signature dedup, source-URL grouping, merging,
// persistence filtering and location synthesis, in that order.
func Run(in Input, opts Options) *Result {
	started := time.Now()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Fields{"run_id": runID})

	matcher, _ := dedup.NewURLMatcher(dedup.MatchHost)
	if opts.Matcher != nil {
		matcher = *opts.Matcher
	}
	communities := opts.Communities
	if communities == nil {
		communities = community.Default()
	}
	m := opts.Metrics

	stats := Stats{RunID: runID, Raw: len(in.Raw)}
	m.ObserveStage(metrics.StageRaw, stats.Raw)

	// Normalize
	records, dropped := event.NormalizeAll(in.Raw)
	stats.Malformed = dropped
	stats.Normalized = len(records)
	m.ObserveStage(metrics.StageNormalized, len(records))
	m.AddDropped(metrics.ReasonMalformed, dropped)
	if dropped > 0 {
		log.Info("Dropped malformed records", logger.Fields{"dropped": dropped})
	}

	// Stage-1 dedup
	records, removed := dedup.BySignature(records)
	stats.SignatureDuplicates = removed
	m.ObserveStage(metrics.StageDeduped, len(records))
	m.AddDropped(metrics.ReasonSignature, removed)
	log.Info("Signature dedup complete", logger.Fields{"removed": removed, "remaining": len(records)})

	// Group and merge
	grouping := dedup.GroupBySourceURL(records, matcher)
	merger := dedup.NewMerger(communities)
	merged := make([]*event.Record, 0, len(records))
	for _, group := range grouping.Groups {
		if len(group.Records) == 1 {
			merged = append(merged, group.Records[0])
			continue
		}
		merged = append(merged, merger.Merge(group.Records))
		stats.MergedGroups++
		stats.MergedDuplicates += len(group.Records) - 1
		log.Debug("Merged duplicate group", logger.Fields{"source_url": group.URL, "records": len(group.Records)})
	}
	merged = append(merged, grouping.Ungrouped...)
	m.ObserveStage(metrics.StageMerged, len(merged))
	m.AddGroupsMerged(stats.MergedGroups)
	m.AddDropped(metrics.ReasonMerged, stats.MergedDuplicates)
	log.Info("Source URL merge complete", logger.Fields{
		"groups":    stats.MergedGroups,
		"collapsed": stats.MergedDuplicates,
		"remaining": len(merged),
	})

	// Persistence filter
	admitted, known := dedup.FilterPersisted(merged, in.Persisted)
	stats.AlreadyPersisted = known
	m.ObserveStage(metrics.StageAdmitted, len(admitted))
	m.AddDropped(metrics.ReasonPersisted, known)
	log.Info("Persisted events filtered", logger.Fields{"already_persisted": known, "admitted": len(admitted)})

	// Location synthesis. IDs the community table forces onto merged events
	// resolve even when the registry has no entry for them.
	reg := location.NewRegistry(in.Locations)
	synth := location.Synthesize(admitted, reg, communities.LocationIDs()...)
	stats.Admitted = len(synth.Events)
	stats.LocationsCreated = len(synth.Created)
	stats.LocationsReused = synth.Reused
	m.AddLocations(stats.LocationsCreated, stats.LocationsReused)
	if stats.LocationsCreated > 0 {
		log.Info("Synthesized locations", logger.Fields{"created": stats.LocationsCreated, "reused": stats.LocationsReused})
	}

	store := make([]*event.Record, 0, len(in.Persisted)+len(synth.Events))
	store = append(store, in.Persisted...)
	store = append(store, synth.Events...)
	stats.Stored = len(store)
	m.ObserveStage(metrics.StageStored, stats.Stored)

	stats.Duration = time.Since(started)

	return &Result{
		Admitted:         synth.Events,
		Events:           store,
		Locations:        location.Merge(reg.Records(), synth.Created),
		CreatedLocations: synth.Created,
		VenueIndex:       synth.Index,
		Stats:            stats,
	}
}
