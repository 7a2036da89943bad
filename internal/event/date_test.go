package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLenient(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantDate string
		wantOK   bool
	}{
		{name: "month day year", text: "March 15, 2026", wantDate: "2026-03-15", wantOK: true},
		{name: "no comma", text: "March 15 2026", wantDate: "2026-03-15", wantOK: true},
		{name: "short month", text: "Mar 15, 2026", wantDate: "2026-03-15", wantOK: true},
		{name: "day month year", text: "15 March 2026", wantDate: "2026-03-15", wantOK: true},
		{name: "numeric slash", text: "3/15/2026", wantDate: "2026-03-15", wantOK: true},
		{name: "iso", text: "2026-03-15", wantDate: "2026-03-15", wantOK: true},
		{name: "weekday and ordinal", text: "Sunday, March 15th, 2026", wantDate: "2026-03-15", wantOK: true},
		{name: "day range", text: "March 15-17, 2026", wantDate: "2026-03-15", wantOK: true},
		{name: "extra whitespace", text: "  March   15,  2026 ", wantDate: "2026-03-15", wantOK: true},
		{name: "empty", text: "", wantOK: false},
		{name: "no digits", text: "sometime next spring", wantOK: false},
		{name: "prose", text: "Join us for an evening of discussion on March 15, 2026 with our guest speaker from London", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLenient(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantDate, got.Format("2006-01-02"))
			}
		})
	}
}

func TestParseISO(t *testing.T) {
	tests := []struct {
		text   string
		wantOK bool
	}{
		{"2026-03-15T10:00:00Z", true},
		{"2026-03-15T10:00:00+01:00", true},
		{"2026-03-15T10:00:00", true},
		{"2026-03-15T10:00:00.123456", true},
		{"2026-03-15", true},
		{"March 15, 2026", false},
		{"not a date", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, ok := ParseISO(tt.text)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestParseISOZoneless(t *testing.T) {
	got, ok := ParseISO("2026-03-15T10:00:00")
	assert.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())
}

func TestFormatISORoundTrip(t *testing.T) {
	in := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	out, ok := ParseISO(FormatISO(in))
	assert.True(t, ok)
	assert.True(t, in.Equal(out))
}
