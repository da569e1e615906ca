package event

import "strings"

// Signature returns the coarse equality key for a record:
// lowercase trimmed name, start date and community joined by "_".
// Missing parts become empty strings, so it never fails.
func Signature(r *Record) string {
	if r == nil {
		return "__"
	}
	name := strings.ToLower(strings.TrimSpace(r.Name))
	return name + "_" + r.StartDate + "_" + r.CommunityID
}

// VenueSignature returns the key used to map an informally described venue
// onto a single location record.
func VenueSignature(v *Venue) string {
	if v == nil {
		return "_"
	}
	return strings.ToLower(v.Name) + "_" + strings.ToLower(v.Address)
}
