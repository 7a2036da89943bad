package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

var (
	created = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	mergeAt = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
)

func newDeduplicator() *Deduplicator {
	d := New()
	d.Now = func() time.Time { return mergeAt }
	return d
}

func makeEvent(id, title, start string) event.Event {
	c := event.NewCandidate(event.Provenance{Kind: event.KindWebsite, URL: "https://apsa.org/events", Name: "APsA"})
	c.Title = title
	c.StartDate = start
	return event.Event{ID: id, Candidate: c, CreatedAt: created, UpdatedAt: created}
}

func ids(events []event.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Annual   Conference ", "annual conference"},
		{"Freud's \"Dream\" Work!", "freuds dream work"},
		{"Ｆｒｅｕｄ Lecture", "freud lecture"},
		{"Ünïcödé Seminar: Part 2", "ünïcödé seminar part 2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Clinical Seminar", "clinical seminar!", 1},
		{"year suffix", "Annual Conference on Clinical Practice", "Annual Conference on Clinical Practice 2025", 5.0 / 6.0},
		{"disjoint", "Dream Analysis", "Group Therapy", 0},
		{"half", "Dream Analysis", "Dream Work", 1.0 / 3.0},
		{"empty", "", "Dream Analysis", 0},
		{"punctuation only", "!!!", "!!!", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestIsDuplicate(t *testing.T) {
	const title = "Annual Conference on Clinical Practice"
	const similar = "Annual Conference on Clinical Practice 2025"

	tests := []struct {
		name   string
		a, b   event.Event
		expect bool
	}{
		{"one day apart", makeEvent("a", title, "2026-03-15T00:00:00Z"), makeEvent("b", similar, "2026-03-16T00:00:00Z"), true},
		{"five days apart", makeEvent("a", title, "2026-03-15T00:00:00Z"), makeEvent("b", similar, "2026-03-20T00:00:00Z"), false},
		{"same day different times", makeEvent("a", title, "2026-03-15T01:00:00Z"), makeEvent("b", similar, "2026-03-16T23:00:00Z"), true},
		{"offsets compare in UTC", makeEvent("a", title, "2026-03-15T23:30:00-05:00"), makeEvent("b", similar, "2026-03-17T02:00:00Z"), true},
		{"one side dateless", makeEvent("a", title, ""), makeEvent("b", similar, "2026-03-20T00:00:00Z"), true},
		{"different titles", makeEvent("a", title, "2026-03-15T00:00:00Z"), makeEvent("b", "Winter Reading Group", "2026-03-15T00:00:00Z"), false},
	}

	d := newDeduplicator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, d.IsDuplicate(&tt.a, &tt.b))
		})
	}
}

func TestDeduplicateMergesOneDayApart(t *testing.T) {
	d := newDeduplicator()
	in := []event.Event{
		makeEvent("a", "Annual Conference on Clinical Practice", "2026-03-15T00:00:00Z"),
		makeEvent("b", "Annual Conference on Clinical Practice 2025", "2026-03-16T00:00:00Z"),
	}

	out := d.Deduplicate(in)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, mergeAt, out[0].UpdatedAt)
	assert.Equal(t, created, out[0].CreatedAt)
}

func TestDeduplicateKeepsFiveDaysApart(t *testing.T) {
	d := newDeduplicator()
	in := []event.Event{
		makeEvent("a", "Annual Conference on Clinical Practice", "2026-03-15T00:00:00Z"),
		makeEvent("b", "Annual Conference on Clinical Practice 2025", "2026-03-20T00:00:00Z"),
	}

	out := d.Deduplicate(in)
	assert.Equal(t, []string{"a", "b"}, ids(out))
	assert.Equal(t, created, out[1].UpdatedAt, "unmerged events are untouched")
}

func TestDeduplicateFirstOccurrenceOrder(t *testing.T) {
	d := newDeduplicator()
	in := []event.Event{
		makeEvent("1", "Winnicott Study Day", "2026-05-09T00:00:00Z"),
		makeEvent("2", "Bion Reading Circle", ""),
		makeEvent("3", "Winnicott Study Day", "2026-05-09T00:00:00Z"),
		makeEvent("4", "Klein and the Depressive Position", "2026-06-01T00:00:00Z"),
		makeEvent("5", "Bion Reading Circle", "2026-07-01T00:00:00Z"),
	}

	out := d.Deduplicate(in)
	assert.Equal(t, []string{"1", "2", "4"}, ids(out))
	assert.Equal(t, "2026-07-01T00:00:00Z", out[1].StartDate, "dateless representative picks up the date")
}

func TestDeduplicateIdempotent(t *testing.T) {
	d := newDeduplicator()
	in := []event.Event{
		makeEvent("1", "Annual Conference on Clinical Practice", "2026-03-15T00:00:00Z"),
		makeEvent("2", "Annual Conference on Clinical Practice 2025", "2026-03-16T00:00:00Z"),
		makeEvent("3", "Annual Conference on Clinical Practice", "2026-09-15T00:00:00Z"),
		makeEvent("4", "Evening Lecture on Winnicott and Play", ""),
		makeEvent("5", "Evening Lecture on Winnicott and Play", "2026-03-24T00:00:00Z"),
	}

	once := d.Deduplicate(in)
	twice := d.Deduplicate(once)
	assert.Equal(t, ids(once), ids(twice))
	assert.Equal(t, once, twice)
}

func TestDeduplicateEmpty(t *testing.T) {
	out := newDeduplicator().Deduplicate(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestDeduplicateDoesNotMutateInput(t *testing.T) {
	in := []event.Event{
		makeEvent("a", "Clinical Case Conference", "2026-03-15T00:00:00Z"),
		makeEvent("b", "Clinical Case Conference", "2026-03-15T00:00:00Z"),
	}
	in[1].Description = "From the second source"

	out := newDeduplicator().Deduplicate(in)
	require.Len(t, out, 1)
	assert.Equal(t, "From the second source", out[0].Description)
	assert.Empty(t, in[0].Description)
	assert.Equal(t, created, in[0].UpdatedAt)
}

func TestMergeAWins(t *testing.T) {
	d := newDeduplicator()

	a := makeEvent("a", "Clinical Case Conference", "2026-03-15T00:00:00Z")
	a.Description = "From A"
	a.Format = event.FormatInPerson
	a.Location.Venue = "Hall A"
	a.Registration.Fee = "$50"
	a.Tags = []string{"clinical"}

	b := makeEvent("b", "Clinical Case Conference", "2026-03-16T00:00:00Z")
	b.Description = "From B"
	b.EventType = event.TypeConference
	b.Format = event.FormatOnline
	b.EndDate = "2026-03-17T00:00:00Z"
	b.Timezone = "America/New_York"
	b.Location.Venue = "Hall B"
	b.Location.City = "New York"
	b.Organizer = event.Organizer{Name: "APsA", URL: "https://apsa.org"}
	b.Registration.URL = "https://apsa.org/register"
	b.Registration.Fee = "$75"
	b.Tags = []string{"annual", "clinical"}

	m := d.Merge(&a, &b)

	assert.Equal(t, "a", m.ID)
	assert.Equal(t, created, m.CreatedAt)
	assert.Equal(t, mergeAt, m.UpdatedAt)

	assert.Equal(t, "From A", m.Description)
	assert.Equal(t, event.FormatInPerson, m.Format)
	assert.Equal(t, "Hall A", m.Location.Venue)
	assert.Equal(t, "$50", m.Registration.Fee)
	assert.Equal(t, "2026-03-15T00:00:00Z", m.StartDate)

	assert.Equal(t, event.TypeConference, m.EventType, "other is filled")
	assert.Equal(t, "2026-03-17T00:00:00Z", m.EndDate)
	assert.Equal(t, "America/New_York", m.Timezone)
	assert.Equal(t, "New York", m.Location.City)
	assert.Equal(t, event.Organizer{Name: "APsA", URL: "https://apsa.org"}, m.Organizer, "unknown organizer is filled")
	assert.Equal(t, "https://apsa.org/register", m.Registration.URL)
	assert.Equal(t, []string{"annual", "clinical"}, m.Tags)

	assert.Equal(t, []string{"clinical"}, a.Tags, "inputs are not modified")
	assert.Equal(t, "Hall A", a.Location.Venue)
	assert.Empty(t, a.Location.City)
}

func TestMergeCommutativeOnIndependentFields(t *testing.T) {
	d := newDeduplicator()

	a := makeEvent("a", "Clinical Case Conference", "2026-03-15T00:00:00Z")
	a.Description = "Case presentations"
	a.Location.Venue = "Hall A"
	a.Tags = []string{"clinical"}

	b := makeEvent("b", "Clinical Case Conference", "")
	b.Location.City = "New York"
	b.Registration.URL = "https://apsa.org/register"
	b.Tags = []string{"annual"}

	ab := d.Merge(&a, &b)
	ba := d.Merge(&b, &a)

	assert.Equal(t, ab.Description, ba.Description)
	assert.Equal(t, ab.StartDate, ba.StartDate)
	assert.Equal(t, ab.Location, ba.Location)
	assert.Equal(t, ab.Registration, ba.Registration)
	assert.Equal(t, ab.Tags, ba.Tags)

	assert.Equal(t, "a", ab.ID)
	assert.Equal(t, "b", ba.ID)
}

func TestMergeWithItselfIsNoOp(t *testing.T) {
	d := newDeduplicator()

	a := makeEvent("a", "Clinical Case Conference", "2026-03-15T00:00:00Z")
	b := makeEvent("b", "Clinical Case Conference", "")
	b.Description = "Case presentations"
	b.Tags = []string{"clinical"}

	m := d.Merge(&a, &b)
	again := d.Merge(&m, &m)
	assert.Equal(t, m, again)
}
