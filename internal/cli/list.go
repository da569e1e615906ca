package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pfrederiksen/eventmerge/internal/event"
	"github.com/pfrederiksen/eventmerge/internal/filter"
	"github.com/pfrederiksen/eventmerge/internal/logger"
)

// filterOptions are the selection flags shared by list and export-ics
type filterOptions struct {
	dates       string
	names       []string
	communities []string
	categories  []string
	venues      []string
	weekends    bool
	upcoming    bool
}

func (o *filterOptions) bind(flags *pflag.FlagSet) {
	flags.StringVar(&o.dates, "dates", "", `Date range, e.g. "March 5-12", "March 28 - April 3", "March" or "2026-03-05..2026-03-12"`)
	flags.StringSliceVar(&o.names, "name", nil, "Event name substring (repeatable)")
	flags.StringSliceVar(&o.communities, "community", nil, "Owning or associated community ID (repeatable)")
	flags.StringSliceVar(&o.categories, "category", nil, "Category (repeatable)")
	flags.StringSliceVar(&o.venues, "venue", nil, "Venue name or address substring (repeatable)")
	flags.BoolVar(&o.weekends, "weekends", false, "Only events on Saturday or Sunday")
	flags.BoolVar(&o.upcoming, "upcoming", false, "Only events that have not started yet")
}

// build turns the flags into a filter. --upcoming narrows the start of an
// explicit date range but never widens it.
func (o *filterOptions) build(now time.Time) (*filter.Filter, error) {
	f := filter.NewFilter()

	if strings.TrimSpace(o.dates) != "" {
		from, to, err := filter.ParseDateRange(o.dates, now)
		if err != nil {
			return nil, fmt.Errorf("invalid --dates: %w", err)
		}
		f.DateFrom, f.DateTo = from, to
	}
	if o.upcoming && (f.DateFrom == nil || f.DateFrom.Before(now)) {
		start := now
		f.DateFrom = &start
	}

	f.Names = append(f.Names, o.names...)
	f.Communities = append(f.Communities, o.communities...)
	f.Categories = append(f.Categories, o.categories...)
	f.Venues = append(f.Venues, o.venues...)
	f.WeekendsOnly = o.weekends
	return f, nil
}

type listOptions struct {
	filterOptions
	sort  string
	limit int
}

func newListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events in the store",
		Example: `  eventmerge list --upcoming --community com_fractal
  eventmerge list --dates "April" --weekends --sort name`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, root, opts)
		},
	}

	opts.bind(cmd.Flags())
	cmd.Flags().StringVar(&opts.sort, "sort", string(SortByDate), "Sort order: date, name or community")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Show at most this many events (0 for all)")

	return cmd
}

func runList(cmd *cobra.Command, root *rootOptions, opts *listOptions) error {
	order, err := ParseSortOrder(opts.sort)
	if err != nil {
		return err
	}

	now := time.Now()
	f, err := opts.build(now)
	if err != nil {
		return err
	}

	events, err := loadStore(root)
	if err != nil {
		return err
	}

	selected := f.Apply(events)
	sortEvents(selected, order)
	if opts.limit > 0 && len(selected) > opts.limit {
		selected = selected[:opts.limit]
	}

	if !f.IsEmpty() {
		root.log.Debug("Applied filter", logger.Fields{"filter": f.String(), "matched": len(selected)})
	}

	result := &ListResult{
		CheckedAt:  now.UTC(),
		Filter:     activeFilter(f),
		Events:     selected,
		EventCount: len(selected),
	}
	if err := WriteList(cmd.OutOrStdout(), result, root.outputFormat(), root.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// loadStore reads the event store. Unlike a run, a listing fails loudly on a
// corrupt store instead of showing nothing.
func loadStore(root *rootOptions) ([]*event.Record, error) {
	store, err := root.storage()
	if err != nil {
		return nil, err
	}
	events, err := store.LoadEvents()
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	return events, nil
}

func activeFilter(f *filter.Filter) *filter.Filter {
	if f.IsEmpty() {
		return nil
	}
	return f
}
