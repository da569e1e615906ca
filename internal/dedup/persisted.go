package dedup

import "github.com/pfrederiksen/eventmerge/internal/event"

// FilterPersisted drops records whose signature already appears in persisted.
// It returns the records that are new and the number dropped.
func FilterPersisted(records, persisted []*event.Record) ([]*event.Record, int) {
	if len(persisted) == 0 {
		return records, 0
	}

	known := Signatures(persisted)
	fresh := make([]*event.Record, 0, len(records))
	for _, rec := range records {
		if _, exists := known[event.Signature(rec)]; exists {
			continue
		}
		fresh = append(fresh, rec)
	}
	return fresh, len(records) - len(fresh)
}
