// Package community holds the static community priority table used when
// several communities list the same event.
//
// Hosting communities physically host events for others and carry location
// priority. One guest/host pair is special-cased: when both list an event the
// guest owns it and the host's venue is used.
package community

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Weight orders communities when electing an event's owner; lower wins
type Weight int

const (
	WeightHost    Weight = 1
	WeightDefault Weight = 10
)

// Table is the typed community lookup table. It is built once and passed to
// the merger explicitly.
type Table struct {
	weights map[string]Weight

	// Guest is the community that owns events it co-lists with HostVenue.
	Guest string
	// HostVenue is the community whose space hosts its guests' events.
	HostVenue string
	// HostVenueLocationID is HostVenue's registered location.
	HostVenueLocationID string
}

// File is the YAML shape accepted by LoadFile
type File struct {
	Hosting             []string `yaml:"hosting"`
	Guest               string   `yaml:"guest"`
	HostVenue           string   `yaml:"host_venue"`
	HostVenueLocationID string   `yaml:"host_venue_location_id"`
}

// Community IDs of the built-in table
const (
	Fractal        = "com_fractal"
	Sidequest      = "com_sidequest"
	FractalVenueID = "loc_fractal"
)

// Default returns the built-in table
func Default() *Table {
	return New(File{
		Hosting:             []string{Fractal, Sidequest},
		Guest:               Sidequest,
		HostVenue:           Fractal,
		HostVenueLocationID: FractalVenueID,
	})
}

// New builds a table from its file form
func New(f File) *Table {
	t := &Table{
		weights:             make(map[string]Weight, len(f.Hosting)),
		Guest:               strings.TrimSpace(f.Guest),
		HostVenue:           strings.TrimSpace(f.HostVenue),
		HostVenueLocationID: strings.TrimSpace(f.HostVenueLocationID),
	}
	for _, id := range f.Hosting {
		id = strings.TrimSpace(id)
		if id != "" {
			t.weights[id] = WeightHost
		}
	}
	return t
}

// LoadFile reads a table from a YAML file
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading community table: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing community table: %w", err)
	}
	if (f.Guest == "") != (f.HostVenue == "") {
		return nil, fmt.Errorf("community table: guest and host_venue must be set together")
	}
	return New(f), nil
}

// Weight returns the priority weight of a community
func (t *Table) Weight(id string) Weight {
	if w, ok := t.weights[id]; ok {
		return w
	}
	return WeightDefault
}

// IsHosting reports whether the community hosts events for others
func (t *Table) IsHosting(id string) bool {
	_, ok := t.weights[id]
	return ok
}

// Hosting returns the hosting community IDs, sorted
func (t *Table) Hosting() []string {
	ids := make([]string, 0, len(t.weights))
	for id := range t.weights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Rank orders community IDs by ascending weight. Ties keep their input order.
func (t *Table) Rank(ids []string) []string {
	ranked := append([]string(nil), ids...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return t.Weight(ranked[i]) < t.Weight(ranked[j])
	})
	return ranked
}

// LocationIDs returns the location IDs the table assigns directly
func (t *Table) LocationIDs() []string {
	if t.HostVenueLocationID == "" {
		return nil
	}
	return []string{t.HostVenueLocationID}
}

// HasGuestPair reports whether the guest/host special case is configured
func (t *Table) HasGuestPair() bool {
	return t.Guest != "" && t.HostVenue != ""
}
