package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/logger"
	"github.com/pfrederiksen/event-harvest/internal/source"
)

const (
	eventsFile  = "events.json"
	sourcesFile = "sources.json"
)

// Metadata heads the events file
type Metadata struct {
	LastUpdated time.Time `json:"last_updated"`
	Count       int       `json:"count"`
}

type eventsDocument struct {
	Metadata Metadata      `json:"metadata"`
	Events   []event.Event `json:"events"`
}

type sourcesDocument struct {
	Sources []source.Descriptor `json:"sources"`
}

// JSONStore keeps the catalog and registry as JSON files in a directory
type JSONStore struct {
	dir string
	// Now stamps metadata and decides what is past; defaults to time.Now.
	Now func() time.Time
}

// NewJSON creates the data directory if needed. A leading ~/ is expanded.
func NewJSON(dataDir string) (*JSONStore, error) {
	dir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "storage: create data directory")
	}
	return &JSONStore{dir: dir, Now: time.Now}, nil
}

// Dir returns the resolved data directory
func (s *JSONStore) Dir() string {
	return s.dir
}

func (s *JSONStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON decodes name into v; ok is false when the file does not exist
func (s *JSONStore) readJSON(name string, v interface{}) (bool, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, eris.Wrapf(err, "storage: read %s", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, eris.Wrapf(err, "storage: parse %s", name)
	}
	return true, nil
}

// writeJSON writes v to a temporary file in the data directory and renames
// it over name, so readers never see a partial file
func (s *JSONStore) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "storage: encode %s", name)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "storage: create temp file for %s", name)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) } //nolint:errcheck

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return eris.Wrapf(err, "storage: write %s", name)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return eris.Wrapf(err, "storage: sync %s", name)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return eris.Wrapf(err, "storage: close %s", name)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		cleanup()
		return eris.Wrapf(err, "storage: replace %s", name)
	}
	return nil
}

// LoadEvents reads events.json
func (s *JSONStore) LoadEvents(_ context.Context) ([]event.Event, error) {
	var doc eventsDocument
	if _, err := s.readJSON(eventsFile, &doc); err != nil {
		return nil, err
	}
	if doc.Events == nil {
		doc.Events = make([]event.Event, 0)
	}
	return doc.Events, nil
}

// Metadata returns the events file header; zero when nothing was saved
func (s *JSONStore) Metadata() (Metadata, error) {
	var doc eventsDocument
	_, err := s.readJSON(eventsFile, &doc)
	return doc.Metadata, err
}

// SaveEvents replaces events.json
func (s *JSONStore) SaveEvents(_ context.Context, events []event.Event) error {
	if events == nil {
		events = make([]event.Event, 0)
	}
	doc := eventsDocument{
		Metadata: Metadata{LastUpdated: s.Now().UTC(), Count: len(events)},
		Events:   events,
	}
	if err := s.writeJSON(eventsFile, doc); err != nil {
		return err
	}
	logger.Debug("Saved events", logger.Fields{"path": s.path(eventsFile), "count": len(events)})
	return nil
}

// LoadSources reads sources.json
func (s *JSONStore) LoadSources(_ context.Context) ([]source.Descriptor, error) {
	var doc sourcesDocument
	if _, err := s.readJSON(sourcesFile, &doc); err != nil {
		return nil, err
	}
	if doc.Sources == nil {
		doc.Sources = make([]source.Descriptor, 0)
	}
	return doc.Sources, nil
}

// SaveSources replaces sources.json
func (s *JSONStore) SaveSources(_ context.Context, sources []source.Descriptor) error {
	if sources == nil {
		sources = make([]source.Descriptor, 0)
	}
	return s.writeJSON(sourcesFile, sourcesDocument{Sources: sources})
}

// UpdateSourceLastScraped stamps the given sources and rewrites sources.json
func (s *JSONStore) UpdateSourceLastScraped(ctx context.Context, ids []string, at time.Time) error {
	sources, err := s.LoadSources(ctx)
	if err != nil {
		return err
	}
	if stamp(sources, ids, at) == 0 {
		return nil
	}
	return s.SaveSources(ctx, sources)
}

// RemovePastEvents rewrites events.json without past events
func (s *JSONStore) RemovePastEvents(ctx context.Context, keepDays int) (int, error) {
	events, err := s.LoadEvents(ctx)
	if err != nil {
		return 0, err
	}
	kept, past := splitPast(events, s.Now(), keepDays)
	if len(past) == 0 {
		return 0, nil
	}
	if err := s.SaveEvents(ctx, kept); err != nil {
		return 0, err
	}
	logger.Info("Removed past events", logger.Fields{"removed": len(past), "keep_days": keepDays})
	return len(past), nil
}

// Close is a no-op
func (s *JSONStore) Close() error {
	return nil
}
