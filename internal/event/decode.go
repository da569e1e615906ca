package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Sources are loosely typed: dates arrive as numbers, organizers and speakers
// as bare names. The decoders below coerce what they can and report an error
// otherwise, which leaves the member in the owning type's Extra map.

// coerceString reads a JSON string, number or boolean as text. null is "".
func coerceString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("expected a string, got %s", raw)
	}
}

func stringField(dst *string) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		s, err := coerceString(raw)
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}
}

// coerceStrings reads a single scalar or an array of scalars as a string slice.
func coerceStrings(raw json.RawMessage) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if string(bytes.TrimSpace(raw)) == "null" {
			return nil, nil
		}
		s, err := coerceString(raw)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := coerceString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func stringsField(dst *[]string) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		list, err := coerceStrings(raw)
		if err != nil {
			return err
		}
		*dst = list
		return nil
	}
}

func intField(dst *int) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		s, err := coerceString(raw)
		if err != nil {
			return err
		}
		if s == "" {
			*dst = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) {
			return fmt.Errorf("expected an integer, got %s", raw)
		}
		*dst = int(f)
		return nil
	}
}

// isString reports whether raw holds a JSON string.
func isString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

// isNull reports whether raw holds JSON null.
func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// namedObject decodes either an object or a bare string naming it.
func namedObject[T any](raw json.RawMessage, named func(string) T) (*T, error) {
	if isNull(raw) {
		return nil, nil
	}
	if isString(raw) {
		name, err := coerceString(raw)
		if err != nil {
			return nil, err
		}
		v := named(name)
		return &v, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// namedList decodes an array of objects or names. A single object or name is
// read as a list of one.
func namedList[T any](raw json.RawMessage, named func(string) T) ([]T, error) {
	if isNull(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		one, err := namedObject(raw, named)
		if err != nil {
			return nil, err
		}
		return []T{*one}, nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := namedObject(item, named)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}
