package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/eventmerge/internal/event"
	"github.com/pfrederiksen/eventmerge/internal/location"
	"github.com/pfrederiksen/eventmerge/internal/logger"
	"github.com/pfrederiksen/eventmerge/internal/schema"
)

// Storage handles persistence of the event store and location registry
type Storage struct {
	eventsPath    string
	locationsPath string

	// files an OrEmpty load could not read; copied to <path>.bak before
	// they are first replaced
	unreadable map[string]bool
}

type eventDocument struct {
	Events []*event.Record `json:"events"`
}

type storedEventDocument struct {
	Events []json.RawMessage `json:"events"`
}

type locationDocument struct {
	Locations []*location.Record `json:"locations"`
}

// New creates a new Storage instance
func New(eventsPath, locationsPath string) (*Storage, error) {
	var err error
	if eventsPath, err = expandHome(eventsPath); err != nil {
		return nil, err
	}
	if locationsPath, err = expandHome(locationsPath); err != nil {
		return nil, err
	}
	return &Storage{
		eventsPath:    eventsPath,
		locationsPath: locationsPath,
	}, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// EventsPath returns the event store path
func (s *Storage) EventsPath() string {
	return s.eventsPath
}

// LocationsPath returns the location registry path
func (s *Storage) LocationsPath() string {
	return s.locationsPath
}

// LoadEvents reads the canonical event store. A missing file yields an empty
// store; an unreadable file or an invalid document is an error. Entries are
// validated and decoded one at a time, and an entry that fails is skipped
// with a warning rather than failing the whole store.
func (s *Storage) LoadEvents() ([]*event.Record, error) {
	events, _, err := s.loadEvents()
	return events, err
}

func (s *Storage) loadEvents() ([]*event.Record, int, error) {
	data, err := readDocument(s.eventsPath, schema.EventStore)
	if err != nil || data == nil {
		return nil, 0, err
	}

	var doc storedEventDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("parsing event store: %w", err)
	}

	events := make([]*event.Record, 0, len(doc.Events))
	skipped := 0
	for i, raw := range doc.Events {
		rec, err := decodeEvent(raw)
		if err != nil {
			skipped++
			logger.Warn("Skipping unreadable stored event", logger.Fields{
				"path":  s.eventsPath,
				"index": i,
				"error": err.Error(),
			})
			continue
		}
		events = append(events, rec)
	}
	return events, skipped, nil
}

func decodeEvent(raw json.RawMessage) (*event.Record, error) {
	if err := schema.Validate(schema.StoredEvent, raw); err != nil {
		return nil, err
	}
	var rec event.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	return &rec, nil
}

// LoadEventsOrEmpty reads the event store for a run that will rewrite it. It
// returns the readable events and the number of entries skipped. A store that
// cannot be read at all is treated as empty, and SaveEvents backs it up
// before replacing it.
func (s *Storage) LoadEventsOrEmpty() ([]*event.Record, int) {
	events, skipped, err := s.loadEvents()
	if err != nil {
		logger.Warn("Event store unreadable, treating as empty", logger.Fields{
			"path":   s.eventsPath,
			"backup": backupPath(s.eventsPath),
			"error":  err.Error(),
		})
		s.markUnreadable(s.eventsPath)
		return nil, 0
	}
	return events, skipped
}

// LoadLocations reads the location registry with the same rules as LoadEvents
func (s *Storage) LoadLocations() ([]*location.Record, error) {
	data, err := readDocument(s.locationsPath, schema.LocationStore)
	if err != nil || data == nil {
		return nil, err
	}

	var doc locationDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing location registry: %w", err)
	}
	return doc.Locations, nil
}

// LoadLocationsOrEmpty reads the location registry, logging a warning and
// returning an empty registry when it cannot be read. SaveLocations then backs
// the unreadable file up before replacing it.
func (s *Storage) LoadLocationsOrEmpty() []*location.Record {
	locations, err := s.LoadLocations()
	if err != nil {
		logger.Warn("Location registry unreadable, treating as empty", logger.Fields{
			"path":   s.locationsPath,
			"backup": backupPath(s.locationsPath),
			"error":  err.Error(),
		})
		s.markUnreadable(s.locationsPath)
		return nil
	}
	return locations
}

// SaveEvents replaces the event store with events
func (s *Storage) SaveEvents(events []*event.Record) error {
	if events == nil {
		events = []*event.Record{}
	}
	if err := s.replace(s.eventsPath, eventDocument{Events: events}); err != nil {
		return fmt.Errorf("writing event store: %w", err)
	}
	return nil
}

// SaveLocations replaces the location registry with locations
func (s *Storage) SaveLocations(locations []*location.Record) error {
	if locations == nil {
		locations = []*location.Record{}
	}
	if err := s.replace(s.locationsPath, locationDocument{Locations: locations}); err != nil {
		return fmt.Errorf("writing location registry: %w", err)
	}
	return nil
}

func (s *Storage) markUnreadable(path string) {
	if s.unreadable == nil {
		s.unreadable = make(map[string]bool)
	}
	s.unreadable[path] = true
}

// replace writes v over path, first copying a file marked unreadable to
// <path>.bak so its contents are never silently lost.
func (s *Storage) replace(path string, v any) error {
	if s.unreadable[path] {
		if err := backupFile(path); err != nil {
			return err
		}
		logger.Warn("Backed up unreadable file before overwriting", logger.Fields{
			"path":   path,
			"backup": backupPath(path),
		})
		delete(s.unreadable, path)
	}
	return writeDocument(path, v)
}

func backupPath(path string) string {
	return path + ".bak"
}

func backupFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s for backup: %w", path, err)
	}
	if err := writeFileAtomic(backupPath(path), data, 0644); err != nil {
		return fmt.Errorf("backing up %s: %w", path, err)
	}
	return nil
}

// readDocument returns nil data and no error when the file does not exist
func readDocument(path string, doc schema.Document) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := schema.Validate(doc, data); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return data, nil
}

// encode pretty-prints v as UTF-8 without escaping HTML characters
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeDocument(path string, v any) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	return writeFileAtomic(path, data, 0644)
}

// writeFileAtomic writes data to a temp file next to path, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
