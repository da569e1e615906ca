package dedup

import "github.com/pfrederiksen/eventmerge/internal/event"

// BySignature keeps the first record of each event.Signature, in input order.
// It returns the kept records and the number removed.
func BySignature(records []*event.Record) ([]*event.Record, int) {
	seen := make(map[string]bool, len(records))
	unique := make([]*event.Record, 0, len(records))
	for _, rec := range records {
		sig := event.Signature(rec)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		unique = append(unique, rec)
	}
	return unique, len(records) - len(unique)
}

// Signatures returns the signature set of records
func Signatures(records []*event.Record) map[string]struct{} {
	set := make(map[string]struct{}, len(records))
	for _, rec := range records {
		set[event.Signature(rec)] = struct{}{}
	}
	return set
}
