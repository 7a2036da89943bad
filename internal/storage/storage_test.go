package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/source"
)

var fixedNow = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func testEvent(id, title, start, end string) event.Event {
	c := event.NewCandidate(event.Provenance{
		Kind:        event.KindWebsite,
		URL:         "https://inst.org/events/",
		Name:        "Institute",
		RetrievedAt: fixedNow,
	})
	c.Title = title
	c.StartDate = start
	c.EndDate = end
	c.EventType = event.TypeSeminar
	return event.Event{
		ID:                id,
		Candidate:         c,
		CompletenessScore: 60,
		MissingFields:     []string{"description", "location", "organizer", "registration_url"},
		CreatedAt:         fixedNow,
		UpdatedAt:         fixedNow,
	}
}

func testSources() []source.Descriptor {
	disabled := false
	return []source.Descriptor{
		{
			ID:     "institute",
			Name:   "Institute",
			Kind:   event.KindWebsite,
			Config: source.Config{URL: "https://inst.org/events/", Selectors: source.Selectors{EventItem: ".event"}},
		},
		{
			ID:      "news",
			Name:    "Institute Newsletter",
			Kind:    event.KindNewsletter,
			Enabled: &disabled,
			Config:  source.Config{GmailSender: "events@inst.org"},
		},
	}
}

// backends returns a fresh store of each kind with a fixed clock
func backends(t *testing.T) map[string]Store {
	t.Helper()

	js, err := NewJSON(t.TempDir())
	require.NoError(t, err)
	js.Now = clock

	sq, err := Open(context.Background(), DriverSQLite, "", filepath.Join(t.TempDir(), "db", "events.db"))
	require.NoError(t, err)
	sq.(*SQLiteStore).Now = clock
	t.Cleanup(func() { sq.Close() }) //nolint:errcheck

	return map[string]Store{DriverJSON: js, DriverSQLite: sq}
}

func TestStoreEmpty(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			events, err := st.LoadEvents(ctx)
			require.NoError(t, err)
			assert.NotNil(t, events)
			assert.Empty(t, events)

			sources, err := st.LoadSources(ctx)
			require.NoError(t, err)
			assert.NotNil(t, sources)
			assert.Empty(t, sources)

			n, err := st.RemovePastEvents(ctx, 0)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestStoreEventsRoundTrip(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			events := []event.Event{
				testEvent("b", "Winter Reading Group on Bion", "2026-02-01T00:00:00Z", ""),
				testEvent("a", "Seminar on Dream Analysis", "2026-03-15T18:00:00Z", "2026-03-15T20:00:00Z"),
			}
			require.NoError(t, st.SaveEvents(ctx, events))

			loaded, err := st.LoadEvents(ctx)
			require.NoError(t, err)
			assert.Equal(t, events, loaded, "order and content survive")

			require.NoError(t, st.SaveEvents(ctx, events[1:]))
			loaded, err = st.LoadEvents(ctx)
			require.NoError(t, err)
			require.Len(t, loaded, 1, "save replaces the catalog")
			assert.Equal(t, "a", loaded[0].ID)
		})
	}
}

func TestStoreSources(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.SaveSources(ctx, testSources()))

			loaded, err := st.LoadSources(ctx)
			require.NoError(t, err)
			require.Len(t, loaded, 2)
			assert.Equal(t, "institute", loaded[0].ID)
			assert.Equal(t, ".event", loaded[0].Config.Selectors.EventItem)
			assert.False(t, loaded[1].IsEnabled())
			assert.Nil(t, loaded[0].LastScraped)

			at := time.Date(2026, 1, 9, 8, 30, 0, 0, time.UTC)
			require.NoError(t, st.UpdateSourceLastScraped(ctx, []string{"news", "missing"}, at))

			loaded, err = st.LoadSources(ctx)
			require.NoError(t, err)
			assert.Nil(t, loaded[0].LastScraped)
			require.NotNil(t, loaded[1].LastScraped)
			assert.True(t, at.Equal(*loaded[1].LastScraped))
		})
	}
}

func TestStoreRemovePastEvents(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.SaveEvents(ctx, []event.Event{
				testEvent("old", "Autumn Colloquium", "2025-10-01T00:00:00Z", ""),
				testEvent("recent", "New Year Lecture", "2026-01-05T00:00:00Z", ""),
				testEvent("long", "Training Programme", "2025-09-01T00:00:00Z", "2026-06-01T00:00:00Z"),
				testEvent("undated", "Reading Group on Klein", "", ""),
			}))

			removed, err := st.RemovePastEvents(ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, 2, removed)

			loaded, err := st.LoadEvents(ctx)
			require.NoError(t, err)
			ids := make([]string, 0, len(loaded))
			for _, e := range loaded {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, []string{"long", "undated"}, ids)
		})
	}
}

func TestStoreRemovePastEventsKeepDays(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.SaveEvents(ctx, []event.Event{
				testEvent("recent", "New Year Lecture", "2026-01-05T00:00:00Z", ""),
			}))

			removed, err := st.RemovePastEvents(ctx, 7)
			require.NoError(t, err)
			assert.Zero(t, removed)
		})
	}
}

func TestJSONStoreFileLayout(t *testing.T) {
	dir := t.TempDir()
	st, err := NewJSON(dir)
	require.NoError(t, err)
	st.Now = clock
	ctx := context.Background()

	require.NoError(t, st.SaveEvents(ctx, []event.Event{
		testEvent("a", "Seminar on Dream Analysis", "2026-03-15T00:00:00Z", ""),
	}))
	require.NoError(t, st.SaveSources(ctx, testSources()))

	data, err := os.ReadFile(filepath.Join(dir, "events.json"))
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "metadata")
	assert.Contains(t, doc, "events")

	meta, err := st.Metadata()
	require.NoError(t, err)
	assert.Equal(t, Metadata{LastUpdated: fixedNow, Count: 1}, meta)

	data, err = os.ReadFile(filepath.Join(dir, "sources.json"))
	require.NoError(t, err)
	var sources sourcesDocument
	require.NoError(t, json.Unmarshal(data, &sources))
	assert.Len(t, sources.Sources, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"events.json", "sources.json"}, names, "no temp files left behind")
}

func TestJSONStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte("{not json"), 0o644))

	st, err := NewJSON(dir)
	require.NoError(t, err)

	_, err = st.LoadEvents(context.Background())
	assert.Error(t, err)
}

func TestNewJSONExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	st, err := NewJSON("~/data/event-harvest")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "event-harvest"), st.Dir())

	info, err := os.Stat(st.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", t.TempDir(), "")
	assert.Error(t, err)
}

func TestOpenDefaultsToJSON(t *testing.T) {
	st, err := Open(context.Background(), "", t.TempDir(), "")
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, st)
	assert.NoError(t, st.Close())
}
