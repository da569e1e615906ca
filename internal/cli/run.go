package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/eventmerge/internal/community"
	"github.com/pfrederiksen/eventmerge/internal/dedup"
	"github.com/pfrederiksen/eventmerge/internal/event"
	"github.com/pfrederiksen/eventmerge/internal/location"
	"github.com/pfrederiksen/eventmerge/internal/logger"
	"github.com/pfrederiksen/eventmerge/internal/metrics"
	"github.com/pfrederiksen/eventmerge/internal/pipeline"
	"github.com/pfrederiksen/eventmerge/internal/source"
)

type runOptions struct {
	inputs      []string
	communities string
	urlMatch    string
	metricsFile string
	dryRun      bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Merge scraper output into the event store",
		Long: `Load scraper output, collapse duplicate listings, drop events the store
already holds, attach location IDs and write the store and registry back.

Inputs are files or directories of .json, .html and .ics files. Prefix an
input with "community=" to attribute its records to that community.`,
		Example: `  eventmerge run --input com_fractal=scrapes/fractal --input com_sidequest=scrapes/sidequest
  eventmerge run --input scrapes --store data/events.json --dry-run --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, root, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.inputs, "input", nil, "Input file or directory, optionally community=path (repeatable, required)")
	cmd.Flags().StringVar(&opts.communities, "communities", "", "YAML community table (default from EVENTMERGE_COMMUNITIES_FILE)")
	cmd.Flags().StringVar(&opts.urlMatch, "url-match", "", "Source URL matching: host or substring (default from EVENTMERGE_URL_MATCH)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile (default from EVENTMERGE_METRICS_FILE)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run the pipeline without writing the store or registry")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// RunSummary is the output of the run command
type RunSummary struct {
	CheckedAt     time.Time      `json:"checked_at"`
	StorePath     string         `json:"store_path"`
	LocationsPath string         `json:"locations_path"`
	DryRun        bool           `json:"dry_run,omitempty"`
	Sources       source.Report  `json:"sources"`
	Stats         pipeline.Stats `json:"stats"`

	// StoreSkipped counts stored events that could not be read and were dropped
	StoreSkipped int `json:"store_skipped,omitempty"`

	Admitted         []*event.Record    `json:"admitted"`
	CreatedLocations []*location.Record `json:"created_locations"`
}

func runMerge(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	cfg := root.cfg
	log := root.log

	if cmd.Flags().Changed("communities") {
		cfg.CommunitiesFile = opts.communities
	}
	if cmd.Flags().Changed("url-match") {
		cfg.URLMatch = opts.urlMatch
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.MetricsFile = opts.metricsFile
	}

	matcher, err := dedup.NewURLMatcher(dedup.MatchMode(cfg.URLMatch))
	if err != nil {
		return err
	}

	table := community.Default()
	if cfg.CommunitiesFile != "" {
		table, err = community.LoadFile(cfg.CommunitiesFile)
		if err != nil {
			return err
		}
	}

	inputs := make([]source.Input, 0, len(opts.inputs))
	for _, arg := range opts.inputs {
		in, err := source.ParseInput(arg)
		if err != nil {
			return err
		}
		inputs = append(inputs, in)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	raws, report, err := source.Load(ctx, inputs)
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	log.Info("Loaded source records", logger.Fields{
		"files":   report.Files,
		"failed":  report.Failed,
		"skipped": report.Skipped,
		"records": report.Records,
	})

	store, err := root.storage()
	if err != nil {
		return err
	}

	persisted, skipped := store.LoadEventsOrEmpty()
	if skipped > 0 {
		log.Warn("Dropped unreadable stored events", logger.Fields{"path": store.EventsPath(), "skipped": skipped})
	}

	run := metrics.New()
	result := pipeline.Run(pipeline.Input{
		Raw:       raws,
		Persisted: persisted,
		Locations: store.LoadLocationsOrEmpty(),
	}, pipeline.Options{
		Communities: table,
		Matcher:     &matcher,
		Metrics:     run,
		Logger:      log,
	})

	if opts.dryRun {
		log.Info("Dry run, store not written", logger.Fields{"run_id": result.Stats.RunID})
	} else {
		if err := store.SaveEvents(result.Events); err != nil {
			log.Error("Failed to write event store", logger.Fields{"path": store.EventsPath()}, err)
			return fmt.Errorf("saving events: %w", err)
		}
		if err := store.SaveLocations(result.Locations); err != nil {
			log.Error("Failed to write location registry", logger.Fields{"path": store.LocationsPath()}, err)
			return fmt.Errorf("saving locations: %w", err)
		}
		log.Debug("Saved store", logger.Fields{"events": len(result.Events), "locations": len(result.Locations)})
	}

	run.ObserveDuration(result.Stats.Duration)
	run.MarkSuccess(time.Now())
	if err := run.WriteTextfile(cfg.MetricsFile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}

	summary := &RunSummary{
		CheckedAt:     time.Now().UTC(),
		StorePath:     store.EventsPath(),
		LocationsPath: store.LocationsPath(),
		DryRun:        opts.dryRun,
		Sources:       *report,
		Stats:         result.Stats,
		StoreSkipped:  skipped,

		Admitted:         result.Admitted,
		CreatedLocations: result.CreatedLocations,
	}
	if err := WriteRunSummary(cmd.OutOrStdout(), summary, root.outputFormat(), root.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
