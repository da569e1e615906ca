package location

import "github.com/pfrederiksen/eventmerge/internal/event"

// VenueIndex maps a venue signature to a location ID. It is threaded through a
// run explicitly so that separate runs never share state.
type VenueIndex map[string]string

// Synthesis is the outcome of Synthesize
type Synthesis struct {
	Events  []*event.Record // input events, with synthesized IDs attached to copies
	Created []*Record       // locations minted during this run
	Reused  int             // events attached to an already known venue
	Index   VenueIndex      // venue index after this run
}

// Synthesize attaches location IDs to events whose locationId the registry
// cannot resolve, using their venue text.
//
// Events with a blank venue are left as they are. A venue whose signature is
// already known, from the registry or from an earlier event in this call,
// reuses that ID. Otherwise a new loc_auto_<n> record is minted, numbering on
// from the registry's highest auto ID (1 for an empty registry).
//
// reserved lists location IDs assigned outside the registry, such as a host
// venue's fixed ID; events carrying one keep it.
func Synthesize(events []*event.Record, reg *Registry, reserved ...string) *Synthesis {
	result := &Synthesis{
		Events:  make([]*event.Record, 0, len(events)),
		Created: make([]*Record, 0),
		Index:   reg.VenueIndex(),
	}
	next := reg.maxAutoID() + 1
	fixed := make(map[string]bool, len(reserved))
	for _, id := range reserved {
		if id != "" {
			fixed[id] = true
		}
	}

	for _, evt := range events {
		if reg.Has(evt.LocationID) || fixed[evt.LocationID] || evt.Metadata == nil || evt.Metadata.Venue.IsBlank() {
			result.Events = append(result.Events, evt)
			continue
		}

		sig := event.VenueSignature(evt.Metadata.Venue)
		id, known := result.Index[sig]
		if known {
			result.Reused++
		} else {
			id = AutoID(next)
			next++
			result.Created = append(result.Created, NewVenueRecord(id, evt.Metadata.Venue))
			result.Index[sig] = id
		}

		attached := evt.Clone()
		attached.LocationID = id
		result.Events = append(result.Events, attached)
	}

	return result
}
