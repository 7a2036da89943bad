package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

var fixedNow = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func newValidator() *Validator {
	v := New()
	v.Now = func() time.Time { return fixedNow }
	return v
}

func baseCandidate() event.Candidate {
	c := event.NewCandidate(event.Provenance{
		Kind:        event.KindWebsite,
		URL:         "https://apsa.org/meetings-events/",
		Name:        "APsA",
		RetrievedAt: fixedNow,
	})
	c.Title = "Clinical Case Conference"
	return c
}

func fullCandidate() event.Candidate {
	c := baseCandidate()
	c.Description = "A day of case presentations."
	c.EventType = event.TypeConference
	c.Format = event.FormatInPerson
	c.StartDate = "2026-02-11T00:00:00Z"
	c.Location = event.Location{Venue: "New York Hilton Midtown", City: "New York"}
	c.Organizer = event.Organizer{Name: "American Psychoanalytic Association"}
	c.Registration = event.Registration{URL: "https://apsa.org/register"}
	return c
}

func TestValidateTitleLength(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   bool
	}{
		{"too short", 4, false},
		{"minimum", 5, true},
		{"maximum", 500, true},
		{"too long", 501, false},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCandidate()
			c.Title = strings.Repeat("a", tt.length)
			ok, reasons := v.Validate(&c)
			assert.Equal(t, tt.want, ok, reasons)
		})
	}
}

func TestValidateDateWindow(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  bool
	}{
		{"30 days past", event.FormatISO(fixedNow.AddDate(0, 0, -30)), true},
		{"31 days past", event.FormatISO(fixedNow.AddDate(0, 0, -31)), false},
		{"1095 days ahead", event.FormatISO(fixedNow.AddDate(0, 0, 1095)), true},
		{"1096 days ahead", event.FormatISO(fixedNow.AddDate(0, 0, 1096)), false},
		{"offset aware", "2025-12-11T13:00:00+01:00", true},
		{"negative offset on boundary", "2025-12-11T11:00:00-01:00", true},
		{"one second too early", "2025-12-11T11:59:59Z", false},
		{"no date", "", true},
		{"garbage", "next tuesday", false},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCandidate()
			c.StartDate = tt.start
			ok, reasons := v.Validate(&c)
			assert.Equal(t, tt.want, ok, reasons)
		})
	}
}

func TestValidateEndDate(t *testing.T) {
	v := newValidator()

	c := baseCandidate()
	c.EndDate = "sometime in spring"
	ok, reasons := v.Validate(&c)
	assert.False(t, ok)
	assert.Contains(t, reasons, "invalid end_date: sometime in spring")

	c.EndDate = "2030-06-01T00:00:00Z"
	ok, _ = v.Validate(&c)
	assert.True(t, ok, "end dates are not windowed")
}

func TestValidateEnums(t *testing.T) {
	v := newValidator()

	c := baseCandidate()
	c.Format = "carrier pigeon"
	c.EventType = "party"
	ok, reasons := v.Validate(&c)
	assert.False(t, ok)
	assert.Contains(t, reasons, "invalid format: carrier pigeon")
	assert.Contains(t, reasons, "invalid event_type: party")

	c.Format = ""
	c.EventType = ""
	ok, reasons = v.Validate(&c)
	assert.True(t, ok, reasons)
}

func TestValidateURLs(t *testing.T) {
	v := newValidator()

	c := baseCandidate()
	c.Source.URL = "ftp://old.example"
	ok, reasons := v.Validate(&c)
	assert.False(t, ok)
	assert.Contains(t, reasons, "no valid url")

	c.Registration.URL = "https://example.org/register"
	ok, reasons = v.Validate(&c)
	assert.True(t, ok, reasons)

	c.Source.URL = ""
	ok, reasons = v.Validate(&c)
	assert.False(t, ok)
	assert.Contains(t, reasons, "missing source url")
}

func TestValidURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://example.org/register", true},
		{"http://inst.org", true},
		{"HTTPS://EXAMPLE.ORG", true},
		{"ftp://old.example", false},
		{"mailto:events@inst.org", false},
		{"https://x.o", true},
		{"http://a", false},
		{"https://localhost/events", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidURL(tt.raw))
		})
	}
}

func TestValidateNonEventTitles(t *testing.T) {
	rejected := []string{
		"Read more",
		"Click here!",
		"Register now »",
		"Subscribe to our newsletter",
		"12345",
		"Online | Free",
		"Hybrid | $25",
		"See all events",
		"View calendar",
		"Browse the archive",
		"Please note: the office is closed",
		"March 2026",
		"Events archive",
		"Upcoming Events",
		"Copyright 2026 Society",
	}

	v := newValidator()
	for _, title := range rejected {
		t.Run(title, func(t *testing.T) {
			c := baseCandidate()
			c.Title = title
			ok, reasons := v.Validate(&c)
			assert.False(t, ok)
			assert.NotEmpty(t, reasons)
		})
	}

	accepted := []string{
		"Seminar on Dream Analysis",
		"Reading Freud: Civilization and Its Discontents",
		"All-day Workshop on Bion",
		"Online Clinical Seminar: Working with Dreams",
	}
	for _, title := range accepted {
		t.Run(title, func(t *testing.T) {
			c := baseCandidate()
			c.Title = title
			ok, reasons := v.Validate(&c)
			assert.True(t, ok, reasons)
		})
	}
}

func TestValidateBodyTextTitle(t *testing.T) {
	v := newValidator()

	sentence := "The institute is pleased to announce a new series of clinical seminars. "
	c := baseCandidate()
	c.Title = strings.TrimSpace(strings.Repeat(sentence, 4))
	require.Greater(t, len(c.Title), 200)

	ok, reasons := v.Validate(&c)
	assert.False(t, ok)
	assert.Contains(t, reasons, "title looks like body text")

	c.Title = strings.Repeat("Long Title Without Sentences ", 9)
	ok, reasons = v.Validate(&c)
	assert.True(t, ok, reasons)
}

func TestScoreWeightsSumTo100(t *testing.T) {
	total := 0
	for _, chk := range checks {
		total += chk.weight
	}
	assert.Equal(t, 100, total)

	c := fullCandidate()
	score, missing := Score(&c)
	assert.Equal(t, 100, score)
	assert.Empty(t, missing)
}

func TestScoreMissingFieldsInOrder(t *testing.T) {
	c := baseCandidate()

	score, missing := Score(&c)
	assert.Equal(t, 30, score, "title and default format")
	assert.Equal(t, []string{
		FieldStartDate, FieldEventType, FieldDescription,
		FieldLocation, FieldOrganizer, FieldRegistrationURL,
	}, missing)

	empty := event.Candidate{}
	score, missing = Score(&empty)
	assert.Equal(t, 0, score)
	assert.Len(t, missing, len(checks))
}

func TestScoreInvalidRegistrationURL(t *testing.T) {
	c := fullCandidate()
	c.Registration.URL = "ftp://old.example"

	score, missing := Score(&c)
	assert.Equal(t, 90, score)
	assert.Equal(t, []string{FieldRegistrationURL}, missing)
}

func TestScoreRunsForRejected(t *testing.T) {
	c := fullCandidate()
	c.StartDate = "2020-01-01T00:00:00Z"

	ok, _ := newValidator().Validate(&c)
	require.False(t, ok)

	score, _ := Score(&c)
	assert.Equal(t, 100, score)
}

func TestAccept(t *testing.T) {
	v := newValidator()

	e, reasons := v.Accept(fullCandidate())
	require.NotNil(t, e, reasons)
	assert.Empty(t, reasons)
	assert.Equal(t, event.GenerateID("https://apsa.org/meetings-events/", "Clinical Case Conference", "2026-02-11T00:00:00Z"), e.ID)
	assert.Equal(t, 100, e.CompletenessScore)
	assert.Empty(t, e.MissingFields)
	assert.Equal(t, fixedNow, e.CreatedAt)
	assert.Equal(t, fixedNow, e.UpdatedAt)

	again, _ := v.Accept(fullCandidate())
	assert.Equal(t, e.ID, again.ID, "identifier is stable across extractions")
}

func TestAcceptRejected(t *testing.T) {
	c := baseCandidate()
	c.Title = "Hi"

	e, reasons := newValidator().Accept(c)
	assert.Nil(t, e)
	assert.Contains(t, reasons, "title too short (2 < 5)")
}

func TestRescore(t *testing.T) {
	e, _ := newValidator().Accept(baseCandidate())
	require.NotNil(t, e)
	assert.Equal(t, 30, e.CompletenessScore)

	e.Description = "Added later"
	Rescore(e)
	assert.Equal(t, 40, e.CompletenessScore)
	assert.NotContains(t, e.MissingFields, FieldDescription)
}
