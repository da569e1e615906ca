// Package jsonx holds the JSON helpers shared by the persisted document types:
// encoding without HTML escaping and carrying unknown object members through a
// decode/encode round trip.
package jsonx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal encodes v like json.Marshal but leaves <, > and & unescaped.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Extra returns the members of the JSON object in data whose keys are not in known.
// It returns nil when every key is known.
func Extra(data []byte, known map[string]bool) (map[string]json.RawMessage, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}

	var extra map[string]json.RawMessage
	for key, value := range members {
		if known[key] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = value
	}
	return extra, nil
}

// WithExtra encodes v, which must encode to a JSON object, and appends the extra
// members whose keys the encoded object does not already carry. Extra keys are
// written in sorted order.
func WithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return data, nil
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("encoded value is not an object: %w", err)
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		if _, ok := present[key]; !ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return data, nil
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	needComma := len(present) > 0
	for _, key := range keys {
		if needComma {
			buf.WriteByte(',')
		}
		needComma = true

		encodedKey, err := Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		if len(extra[key]) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(extra[key])
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Clone returns a deep copy of a member map.
func Clone(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for key, value := range extra {
		out[key] = append(json.RawMessage(nil), value...)
	}
	return out
}

// Equal reports whether two member maps hold the same keys with equivalent JSON values.
// Insignificant whitespace is ignored.
func Equal(a, b map[string]json.RawMessage) bool {
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok {
			return false
		}
		if !bytes.Equal(compact(av), compact(bv)) {
			return false
		}
	}
	return true
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// Object is a decoded JSON object whose members are handed to field decoders
// one key at a time. Members a decoder rejects are kept with the unknown keys
// so they still round-trip.
type Object struct {
	members  map[string]json.RawMessage
	rejected map[string]json.RawMessage
}

// DecodeObject splits data into its members. It fails only when data is not a
// JSON object.
func DecodeObject(data []byte) (*Object, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	if members == nil {
		return nil, fmt.Errorf("expected a JSON object, got %s", bytes.TrimSpace(data))
	}
	return &Object{members: members}, nil
}

// Field passes the member named key to decode. A missing member is skipped;
// a member decode returns an error for is set aside for Extra.
func (o *Object) Field(key string, decode func(json.RawMessage) error) {
	raw, ok := o.members[key]
	if !ok {
		return
	}
	if err := decode(raw); err != nil {
		if o.rejected == nil {
			o.rejected = make(map[string]json.RawMessage)
		}
		o.rejected[key] = raw
	}
}

// Rejected reports whether any field decoder failed.
func (o *Object) Rejected() bool {
	return len(o.rejected) > 0
}

// Extra returns the members whose keys are not in known, plus every rejected
// member. It returns nil when there are none.
func (o *Object) Extra(known map[string]bool) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	for key, value := range o.members {
		if known[key] && o.rejected[key] == nil {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = value
	}
	return extra
}
