// Package schema validates persisted eventmerge documents against embedded
// JSON Schemas before they are decoded.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed *.schema.json
var files embed.FS

// Document names a persisted document kind. A fragment selects a definition
// inside the schema file.
type Document string

const (
	EventStore    Document = "event_store.schema.json"
	StoredEvent   Document = "event_store.schema.json#/$defs/event"
	LocationStore Document = "location_store.schema.json"
)

type compiled struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

var schemas = map[Document]*compiled{
	EventStore:    {},
	StoredEvent:   {},
	LocationStore: {},
}

// Validate checks raw JSON against the schema for doc
func Validate(doc Document, data []byte) error {
	value, err := decodeStrictJSON(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", doc, err)
	}

	s, err := load(doc)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	if err := s.Validate(value); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func load(doc Document) (*jsonschema.Schema, error) {
	c, ok := schemas[doc]
	if !ok {
		return nil, fmt.Errorf("unknown document %q", doc)
	}

	c.once.Do(func() {
		file, _, _ := strings.Cut(string(doc), "#")
		source, err := files.ReadFile(file)
		if err != nil {
			c.err = fmt.Errorf("read schema resource: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource(file, bytes.NewReader(source)); err != nil {
			c.err = fmt.Errorf("add schema resource: %w", err)
			return
		}

		c.schema, c.err = compiler.Compile(string(doc))
		if c.err != nil {
			c.err = fmt.Errorf("compile schema: %w", c.err)
		}
	})

	return c.schema, c.err
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("document contains trailing content")
	}

	return value, nil
}
