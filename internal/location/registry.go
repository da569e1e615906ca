package location

import "github.com/pfrederiksen/eventmerge/internal/event"

// Registry is an ordered, ID-indexed set of location records
type Registry struct {
	records []*Record
	byID    map[string]*Record
}

// NewRegistry builds a registry. When IDs repeat, the first entry wins.
func NewRegistry(records []*Record) *Registry {
	reg := &Registry{
		records: make([]*Record, 0, len(records)),
		byID:    make(map[string]*Record, len(records)),
	}
	for _, rec := range records {
		reg.add(rec)
	}
	return reg
}

func (r *Registry) add(rec *Record) bool {
	if rec == nil || rec.ID == "" {
		return false
	}
	if _, exists := r.byID[rec.ID]; exists {
		return false
	}
	r.byID[rec.ID] = rec
	r.records = append(r.records, rec)
	return true
}

// Has reports whether id is registered
func (r *Registry) Has(id string) bool {
	if r == nil || id == "" {
		return false
	}
	_, ok := r.byID[id]
	return ok
}

// Get returns the record for id, or nil
func (r *Registry) Get(id string) *Record {
	if r == nil {
		return nil
	}
	return r.byID[id]
}

// Len returns the number of records
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// Records returns the records in registry order
func (r *Registry) Records() []*Record {
	if r == nil {
		return nil
	}
	return append([]*Record(nil), r.records...)
}

// VenueIndex maps venue signatures of registered entries to their IDs.
// Entries with neither name nor address are not indexed.
func (r *Registry) VenueIndex() VenueIndex {
	index := make(VenueIndex)
	if r == nil {
		return index
	}
	for _, rec := range r.records {
		venue := &event.Venue{Name: rec.Name, Address: rec.Address}
		if venue.IsBlank() {
			continue
		}
		sig := event.VenueSignature(venue)
		if _, exists := index[sig]; !exists {
			index[sig] = rec.ID
		}
	}
	return index
}

// maxAutoID returns the highest n among loc_auto_<n> IDs, or 0
func (r *Registry) maxAutoID() int {
	highest := 0
	if r == nil {
		return highest
	}
	for _, rec := range r.records {
		if n, ok := parseAutoID(rec.ID); ok && n > highest {
			highest = n
		}
	}
	return highest
}

// Merge returns existing followed by created; on ID collision the existing entry wins
func Merge(existing, created []*Record) []*Record {
	reg := NewRegistry(existing)
	for _, rec := range created {
		reg.add(rec)
	}
	return reg.records
}
