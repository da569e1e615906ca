package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pfrederiksen/eventmerge/internal/event"
)

// LoadJSON decodes a JSON dump. Entries that are not objects are returned as
// empty records so the Normalizer counts them as dropped.
func LoadJSON(r io.Reader) ([]event.Raw, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading JSON: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parsing JSON array: %w", err)
		}
	case '{':
		var doc struct {
			Events []json.RawMessage `json:"events"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing JSON document: %w", err)
		}
		if doc.Events == nil {
			return nil, fmt.Errorf("JSON document has no events array")
		}
		entries = doc.Events
	default:
		return nil, fmt.Errorf("JSON dump must be an array or an object")
	}

	records := make([]event.Raw, 0, len(entries))
	for _, entry := range entries {
		records = append(records, decodeObject(entry))
	}
	return records, nil
}

// decodeObject keeps numbers exact so they survive re-encoding unchanged
func decodeObject(data []byte) event.Raw {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rec event.Raw
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return event.Raw{}
	}
	return rec
}
