// Package filter narrows canonical events for listing and export.
//
// Criteria combine with AND; list-valued criteria match when any value matches:
//   - Date ranges (from/to dates)
//   - Names (substring matching, case-insensitive)
//   - Communities (owner or associated community)
//   - Categories (case-insensitive exact match)
//   - Venues (substring of venue name or address, case-insensitive)
//   - Weekends only (Saturday/Sunday)
//
// Events whose start date cannot be parsed are never excluded by date criteria.
//
// Example usage:
//
//	from, to, _ := filter.ParseDateRange("March", time.Now())
//	f := filter.NewFilter()
//	f.DateFrom, f.DateTo = from, to
//	f.Communities = []string{"com_fractal"}
//	filtered := f.Apply(events)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/eventmerge/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Event name filtering (case-insensitive substring match)
	Names []string `json:"names,omitempty"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty"`

	// Community filtering, against communityId and associated communities
	Communities []string `json:"communities,omitempty"`

	// Category filtering (case-insensitive exact match)
	Categories []string `json:"categories,omitempty"`

	// Venue filtering (case-insensitive substring of name or address)
	Venues []string `json:"venues,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Names:       []string{},
		Communities: []string{},
		Categories:  []string{},
		Venues:      []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
// Returns true if the filter would match all events.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Names) == 0 &&
		!f.WeekendsOnly &&
		len(f.Communities) == 0 &&
		len(f.Categories) == 0 &&
		len(f.Venues) == 0
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
func (f *Filter) Matches(evt *event.Record) bool {
	if evt == nil {
		return false
	}
	// Empty filter matches all events
	if f.IsEmpty() {
		return true
	}

	start := evt.Start()
	dated := !start.IsZero()

	// Check date range
	if f.DateFrom != nil && dated && start.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && dated && start.After(*f.DateTo) {
		return false
	}

	// Check weekends only
	if f.WeekendsOnly && dated {
		weekday := start.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	// Check event name (case-insensitive substring match)
	if len(f.Names) > 0 && !containsAny(evt.Name, f.Names) {
		return false
	}

	if len(f.Communities) > 0 && !f.matchesCommunity(evt) {
		return false
	}

	if len(f.Categories) > 0 && !f.matchesCategory(evt) {
		return false
	}

	if len(f.Venues) > 0 {
		var venue *event.Venue
		if evt.Metadata != nil {
			venue = evt.Metadata.Venue
		}
		if venue.IsBlank() {
			return false
		}
		if !containsAny(venue.Name, f.Venues) && !containsAny(venue.Address, f.Venues) {
			return false
		}
	}

	return true
}

func (f *Filter) matchesCommunity(evt *event.Record) bool {
	for _, want := range f.Communities {
		if strings.EqualFold(evt.CommunityID, want) {
			return true
		}
		if evt.Metadata == nil {
			continue
		}
		for _, assoc := range evt.Metadata.AssociatedCommunities {
			if strings.EqualFold(assoc, want) {
				return true
			}
		}
	}
	return false
}

func (f *Filter) matchesCategory(evt *event.Record) bool {
	for _, want := range f.Categories {
		for _, cat := range evt.Category {
			if strings.EqualFold(strings.TrimSpace(cat), strings.TrimSpace(want)) {
				return true
			}
		}
	}
	return false
}

func containsAny(value string, needles []string) bool {
	lower := strings.ToLower(value)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// Apply applies the filter to a list of events and returns only matching events.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []*event.Record) []*event.Record {
	if f.IsEmpty() {
		return events
	}

	var filtered []*event.Record
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Returns "No active filters" if the filter is empty.
// Format: "From: Jan 2, 2026 | To: Jan 15, 2026 | Communities: com_fractal | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Names) > 0 {
		parts = append(parts, fmt.Sprintf("Names: %s", strings.Join(f.Names, ", ")))
	}

	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	if len(f.Communities) > 0 {
		parts = append(parts, fmt.Sprintf("Communities: %s", strings.Join(f.Communities, ", ")))
	}

	if len(f.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(f.Categories, ", ")))
	}

	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}

	return strings.Join(parts, " | ")
}
