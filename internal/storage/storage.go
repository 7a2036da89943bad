package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/source"
)

// Drivers
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Store persists the catalog and the source registry
type Store interface {
	// LoadEvents returns the catalog in stored order; empty when nothing
	// has been saved yet.
	LoadEvents(ctx context.Context) ([]event.Event, error)
	// SaveEvents replaces the catalog.
	SaveEvents(ctx context.Context, events []event.Event) error
	LoadSources(ctx context.Context) ([]source.Descriptor, error)
	SaveSources(ctx context.Context, sources []source.Descriptor) error
	// UpdateSourceLastScraped stamps the given sources; unknown ids are ignored.
	UpdateSourceLastScraped(ctx context.Context, ids []string, at time.Time) error
	// RemovePastEvents drops events that ended more than keepDays ago and
	// returns how many were removed.
	RemovePastEvents(ctx context.Context, keepDays int) (int, error)
	Close() error
}

// Open returns the store for driver. dataDir is used by the JSON driver and
// dsn by the SQLite driver.
func Open(ctx context.Context, driver, dataDir, dsn string) (Store, error) {
	switch driver {
	case "", DriverJSON:
		return NewJSON(dataDir)
	case DriverSQLite:
		dsn, err := expandHome(dsn)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, eris.Wrap(err, "storage: create database directory")
		}
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("storage: unknown driver %q", driver)
	}
}

// expandHome expands a leading ~/ to the home directory
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "storage: home directory")
	}
	return filepath.Join(home, path[2:]), nil
}

// splitPast partitions events into those kept and the ids of those past
func splitPast(events []event.Event, now time.Time, keepDays int) ([]event.Event, []string) {
	kept := make([]event.Event, 0, len(events))
	var past []string
	for _, e := range events {
		if e.IsPast(now, keepDays) {
			past = append(past, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	return kept, past
}

func stamp(sources []source.Descriptor, ids []string, at time.Time) int {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	n := 0
	for i := range sources {
		if want[sources[i].ID] {
			t := at.UTC()
			sources[i].LastScraped = &t
			n++
		}
	}
	return n
}
