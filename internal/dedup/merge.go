package dedup

import (
	"github.com/pfrederiksen/eventmerge/internal/community"
	"github.com/pfrederiksen/eventmerge/internal/event"
)

// Merger collapses a group of duplicate records into one canonical record
type Merger struct {
	communities *community.Table
}

// NewMerger creates a Merger using the given community table.
// A nil table selects community.Default().
func NewMerger(communities *community.Table) *Merger {
	if communities == nil {
		communities = community.Default()
	}
	return &Merger{communities: communities}
}

// Merge combines records believed to denote the same occurrence.
//
// The first record is the base: fields not resolved below keep its values.
// Ownership goes to the lowest-weight community, with the guest/host pair
// special-cased, and the venue comes from whichever sub-record names the
// physical location. Organizers are unioned across the group. Speakers,
// categories and social links are de-duplicated from the base record only.
// Inputs are never modified.
func (m *Merger) Merge(group []*event.Record) *event.Record {
	if len(group) == 0 {
		return nil
	}

	merged := group[0].Clone()
	if merged.Metadata == nil {
		merged.Metadata = &event.Metadata{}
	}

	communities := distinctCommunities(group)
	primary, associated := m.electOwner(communities, merged.CommunityID)
	primary, associated = m.resolveVenue(group, merged, communities, primary, associated)

	merged.CommunityID = primary
	merged.Metadata.AssociatedCommunities = associated
	merged.Metadata.Organizers = unionOrganizers(group)
	merged.Metadata.Speakers = uniqueSpeakers(merged.Metadata.Speakers)
	if merged.Category != nil {
		merged.Category = uniqueStrings(merged.Category)
	}
	if merged.Metadata.SocialLinks != nil {
		merged.Metadata.SocialLinks = uniqueStrings(merged.Metadata.SocialLinks)
	}
	merged.Metadata.MergedFrom = len(group)

	return merged
}

// electOwner ranks the group's communities. With no communities the base
// record's own community stands.
func (m *Merger) electOwner(communities []string, fallback string) (string, []string) {
	if len(communities) == 0 {
		return fallback, nil
	}
	ranked := m.communities.Rank(communities)
	return ranked[0], ranked[1:]
}

// resolveVenue applies the venue override cascade; the first matching rule wins.
func (m *Merger) resolveVenue(group []*event.Record, merged *event.Record, communities []string, primary string, associated []string) (string, []string) {
	table := m.communities

	switch {
	case table.HasGuestPair() && contains(communities, table.Guest) && contains(communities, table.HostVenue):
		ranked := table.Rank(communities)
		associated = make([]string, 0, len(ranked)-1)
		for _, id := range ranked {
			if id != table.Guest {
				associated = append(associated, id)
			}
		}
		primary = table.Guest

		if host := firstOf(group, table.HostVenue); host != nil && host.Metadata != nil && host.Metadata.Venue != nil {
			merged.Metadata.Venue = host.Metadata.Venue.Clone()
			if host.LocationID != "" {
				merged.LocationID = host.LocationID
			}
		}

	case table.HostVenue != "" && contains(communities, table.HostVenue):
		if table.HostVenueLocationID != "" {
			merged.LocationID = table.HostVenueLocationID
		}

	case table.IsHosting(primary):
		for _, rec := range group {
			if rec.CommunityID == primary && rec.LocationID != "" {
				adoptLocation(merged, rec)
				break
			}
		}

	case len(associated) > 0:
		for _, rec := range group {
			if rec.LocationID != "" && contains(associated, rec.CommunityID) {
				adoptLocation(merged, rec)
				break
			}
		}
	}

	return primary, associated
}

// adoptLocation copies a sub-record's location ID and venue onto merged
func adoptLocation(merged, from *event.Record) {
	merged.LocationID = from.LocationID
	if from.Metadata != nil && from.Metadata.Venue != nil {
		merged.Metadata.Venue = from.Metadata.Venue.Clone()
	}
}

// distinctCommunities returns the non-empty community IDs in order of first appearance
func distinctCommunities(group []*event.Record) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, rec := range group {
		if rec.CommunityID == "" || seen[rec.CommunityID] {
			continue
		}
		seen[rec.CommunityID] = true
		ids = append(ids, rec.CommunityID)
	}
	return ids
}

func firstOf(group []*event.Record, communityID string) *event.Record {
	for _, rec := range group {
		if rec.CommunityID == communityID {
			return rec
		}
	}
	return nil
}

// unionOrganizers collects each record's organizer in group order. Organizers
// are distinct unless every field matches; equal names alone do not collapse.
func unionOrganizers(group []*event.Record) []event.Organizer {
	var organizers []event.Organizer
	for _, rec := range group {
		if rec.Metadata == nil || rec.Metadata.Organizer == nil {
			continue
		}
		org := *rec.Metadata.Organizer
		duplicate := false
		for _, existing := range organizers {
			if existing.Equal(org) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			organizers = append(organizers, org)
		}
	}
	return organizers
}

// uniqueSpeakers keeps the first speaker of each name
func uniqueSpeakers(speakers []event.Speaker) []event.Speaker {
	if speakers == nil {
		return nil
	}
	seen := make(map[string]bool, len(speakers))
	unique := make([]event.Speaker, 0, len(speakers))
	for _, sp := range speakers {
		if seen[sp.Name] {
			continue
		}
		seen[sp.Name] = true
		unique = append(unique, sp)
	}
	return unique
}

func uniqueStrings[S ~[]string](values S) S {
	seen := make(map[string]bool, len(values))
	unique := make(S, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	return unique
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
