package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/eventmerge/internal/event"
	"github.com/pfrederiksen/eventmerge/internal/filter"
	"github.com/pfrederiksen/eventmerge/internal/stats"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ListResult contains the events selected by the list command
type ListResult struct {
	CheckedAt  time.Time       `json:"checked_at"`
	Filter     *filter.Filter  `json:"filter,omitempty"`
	Events     []*event.Record `json:"events"`
	EventCount int             `json:"event_count"`
}

// WriteList writes a listing in the specified format
func WriteList(w io.Writer, result *ListResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		if result.Events == nil {
			result.Events = []*event.Record{}
		}
		return writeJSON(w, result)
	case FormatText:
		return writeListText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteRunSummary writes the outcome of a run in the specified format
func WriteRunSummary(w io.Writer, summary *RunSummary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeRunText(w, summary, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteStats writes a store summary in the specified format
func WriteStats(w io.Writer, summary *stats.Summary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeStatsText(w, summary)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeListText outputs events as human-readable text
func writeListText(w io.Writer, result *ListResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	if result.Filter != nil {
		fmt.Fprintf(w, "Filter: %s\n\n", result.Filter)
	}
	for _, evt := range result.Events {
		writeEventText(w, evt, "", verbose)
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", result.EventCount)
	return nil
}

func writeEventText(w io.Writer, evt *event.Record, prefix string, verbose bool) {
	community := evt.CommunityID
	if community == "" {
		community = stats.NoCommunity
	}
	if prefix != "" {
		fmt.Fprintf(w, "  %s: %s  %s [%s]\n", prefix, displayDate(evt), evt.Name, community)
	} else {
		fmt.Fprintf(w, "%s  %s [%s]\n", displayDate(evt), evt.Name, community)
	}
	if !verbose {
		return
	}

	indent := "     "
	if prefix != "" {
		indent = "       "
	}
	if evt.LocationID != "" {
		fmt.Fprintf(w, "%sLocation: %s\n", indent, evt.LocationID)
	}
	if md := evt.Metadata; md != nil {
		if !md.Venue.IsBlank() {
			fmt.Fprintf(w, "%sVenue: %s\n", indent, venueText(md.Venue))
		}
		if len(md.AssociatedCommunities) > 0 {
			fmt.Fprintf(w, "%sAlso listed by: %s\n", indent, strings.Join(md.AssociatedCommunities, ", "))
		}
		if md.SourceURL != "" {
			fmt.Fprintf(w, "%sSource: %s\n", indent, md.SourceURL)
		}
	}
}

// writeRunText outputs a run summary as human-readable text
func writeRunText(w io.Writer, summary *RunSummary, verbose bool) error {
	s := summary.Stats
	title := fmt.Sprintf("Run %s complete", s.RunID)
	if summary.DryRun {
		title += " (dry run, nothing written)"
	}
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "Sources: %d files, %d failed, %d skipped, %d records\n",
		summary.Sources.Files, summary.Sources.Failed, summary.Sources.Skipped, summary.Sources.Records)
	fmt.Fprintf(w, "  Malformed dropped:    %d\n", s.Malformed)
	fmt.Fprintf(w, "  Signature duplicates: %d\n", s.SignatureDuplicates)
	fmt.Fprintf(w, "  Merged groups:        %d (%d duplicates collapsed)\n", s.MergedGroups, s.MergedDuplicates)
	fmt.Fprintf(w, "  Already persisted:    %d\n", s.AlreadyPersisted)
	fmt.Fprintf(w, "  Admitted:             %d\n", s.Admitted)
	fmt.Fprintf(w, "  Locations created:    %d (%d reused)\n", s.LocationsCreated, s.LocationsReused)
	if summary.StoreSkipped > 0 {
		fmt.Fprintf(w, "  Unreadable stored:    %d (dropped from the store)\n", summary.StoreSkipped)
	}

	if verbose && len(summary.Admitted) > 0 {
		fmt.Fprintln(w)
		for _, evt := range summary.Admitted {
			writeEventText(w, evt, "NEW", true)
		}
	}

	fmt.Fprintf(w, "\nStore: %s (%d events)\n", summary.StorePath, s.Stored)
	return nil
}

// writeStatsText outputs a store summary as human-readable text
func writeStatsText(w io.Writer, s *stats.Summary) error {
	if s.Total == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	fmt.Fprintf(w, "Events: %d (%d upcoming, %d past, %d undated)\n", s.Total, s.Upcoming, s.Past, s.Undated)
	fmt.Fprintf(w, "With location: %d\n", s.WithLocation)
	fmt.Fprintf(w, "Merged from several listings: %d\n", s.Merged)

	sections := []struct {
		title  string
		counts []stats.Count
	}{
		{"By community", s.ByCommunity},
		{"By category", s.ByCategory},
		{"By month", s.ByMonth},
	}
	for _, section := range sections {
		if len(section.counts) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", section.title)
		for _, c := range section.counts {
			fmt.Fprintf(w, "  %-24s %d\n", c.Key, c.Count)
		}
	}
	return nil
}

// displayDate renders an event's start for listings
func displayDate(evt *event.Record) string {
	start := evt.Start()
	if start.IsZero() {
		return "Date TBD"
	}
	if len(strings.TrimSpace(evt.StartDate)) == len("2006-01-02") {
		return start.Format("Mon Jan 2, 2006")
	}
	return start.Format("Mon Jan 2, 2006 15:04")
}

func venueText(v *event.Venue) string {
	switch {
	case v.Name == "":
		return v.Address
	case v.Address == "":
		return v.Name
	}
	return v.Name + ", " + v.Address
}
