// Package location manages the location registry and synthesizes location
// records for venues that sources describe only informally.
package location

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/eventmerge/internal/event"
	"github.com/pfrederiksen/eventmerge/internal/jsonx"
)

// AutoIDPrefix prefixes synthesized location IDs
const AutoIDPrefix = "loc_auto_"

// Defaults applied to synthesized locations
const (
	DefaultType     = "Venue"
	DefaultCapacity = "Small"
	DefaultHours    = "By appointment"
)

// Weekdays are the keys of a location's hours map
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Record is one entry of the location registry
type Record struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Address       string            `json:"address"`
	Type          string            `json:"type"`
	Coordinates   Coordinates       `json:"coordinates"`
	Capacity      string            `json:"capacity"`
	Accessibility bool              `json:"accessibility"`
	Amenities     []string          `json:"amenities"`
	Images        []string          `json:"images"`
	Hours         map[string]string `json:"hours"`

	// Extra holds registry keys this package does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

// Coordinates are nil until geocoded
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

var recordKeys = map[string]bool{"id": true, "name": true, "address": true, "type": true, "coordinates": true, "capacity": true, "accessibility": true, "amenities": true, "images": true, "hours": true}

type recordJSON Record

// UnmarshalJSON decodes a registry entry and keeps unknown keys in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var decoded recordJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	extra, err := jsonx.Extra(data, recordKeys)
	if err != nil {
		return err
	}
	*r = Record(decoded)
	r.Extra = extra
	return nil
}

// MarshalJSON encodes the entry followed by its Extra keys.
func (r Record) MarshalJSON() ([]byte, error) {
	return jsonx.WithExtra(recordJSON(r), r.Extra)
}

// NewVenueRecord creates a placeholder location for a venue no registry entry covers
func NewVenueRecord(id string, venue *event.Venue) *Record {
	hours := make(map[string]string, len(Weekdays))
	for _, day := range Weekdays {
		hours[day] = DefaultHours
	}

	rec := &Record{
		ID:            id,
		Type:          DefaultType,
		Capacity:      DefaultCapacity,
		Accessibility: true,
		Amenities:     []string{},
		Images:        []string{},
		Hours:         hours,
	}
	if venue != nil {
		rec.Name = venue.Name
		rec.Address = venue.Address
	}
	return rec
}

// AutoID formats the n-th synthesized location ID
func AutoID(n int) string {
	return fmt.Sprintf("%s%d", AutoIDPrefix, n)
}

// parseAutoID returns n for IDs of the form loc_auto_<n>
func parseAutoID(id string) (int, bool) {
	if !strings.HasPrefix(id, AutoIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, AutoIDPrefix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
