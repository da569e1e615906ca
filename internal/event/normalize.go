package event

import (
	"encoding/json"
	"strings"
)

// Raw is a record as produced by a source adapter, before normalization
type Raw map[string]any

// Normalize converts a raw record into a Record.
// It returns nil only when the record has no usable name. Loosely typed
// fields are coerced, and values that still do not fit are kept in Extra.
func Normalize(raw Raw) *Record {
	name, ok := raw["name"].(string)
	if !ok {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		// only values JSON cannot represent (NaN, channels) end up here
		return nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}

	rec.Name = name
	if rec.Metadata == nil {
		rec.Metadata = &Metadata{}
	}
	return &rec
}

// NormalizeAll normalizes a batch, preserving input order.
// It returns the kept records and the number dropped.
func NormalizeAll(raws []Raw) ([]*Record, int) {
	records := make([]*Record, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		rec := Normalize(raw)
		if rec == nil {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}
