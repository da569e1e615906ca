package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/eventmerge/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate      SortOrder = "date"
	SortByName      SortOrder = "name"
	SortByCommunity SortOrder = "community"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(value string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(value)))
	switch order {
	case "":
		return SortByDate, nil
	case SortByDate, SortByName, SortByCommunity:
		return order, nil
	}
	return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'name' or 'community')", value)
}

// sortEvents sorts a slice of events based on the specified sort order.
// Events that compare equal keep their store order.
func sortEvents(events []*event.Record, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByCommunity:
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].CommunityID != events[j].CommunityID {
				return events[i].CommunityID < events[j].CommunityID
			}
			// If communities are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByName:
		sort.SliceStable(events, func(i, j int) bool {
			nameI, nameJ := strings.ToLower(events[i].Name), strings.ToLower(events[j].Name)
			if nameI != nameJ {
				return nameI < nameJ
			}
			// If names are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate compares two events by their start
// Returns true if event i should come before event j
func compareByDate(i, j *event.Record) bool {
	dateI := i.Start()
	dateJ := j.Start()

	// If both dates are valid, compare them
	if !dateI.IsZero() && !dateJ.IsZero() {
		if !dateI.Equal(dateJ) {
			return dateI.Before(dateJ)
		}
		return strings.ToLower(i.Name) < strings.ToLower(j.Name)
	}

	// If only one date is valid, put the valid one first
	if !dateI.IsZero() {
		return true
	}
	if !dateJ.IsZero() {
		return false
	}

	// If neither has a valid date, sort by name
	return strings.ToLower(i.Name) < strings.ToLower(j.Name)
}
