package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"2026-03-15T18:00:00Z", time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC), false},
		{"March 15, 2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"  15 March 2026 ", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"next week", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestEndOfDay(t *testing.T) {
	got := EndOfDay(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC), got)
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		wantFrom time.Time
		wantTo   time.Time
		wantErr  bool
	}{
		{
			name:     "same month range",
			input:    "Jun 1-15",
			wantFrom: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 6, 15, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "current month stays this year",
			input:    "May 20 - 25",
			wantFrom: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 5, 25, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "past month rolls to next year",
			input:    "March",
			wantFrom: time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2027, 3, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "whole month february",
			input:    "february",
			wantFrom: time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2027, 2, 28, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "cross month",
			input:    "June 20 - July 5",
			wantFrom: time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 7, 5, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "cross year",
			input:    "Dec 20 - Jan 5",
			wantFrom: time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2027, 1, 5, 23, 59, 59, 0, time.UTC),
		},
		{name: "reversed days", input: "Jun 15-1", wantErr: true},
		{name: "invalid day", input: "Jun 0-5", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseDateRange(tt.input, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, *from)
			assert.Equal(t, tt.wantTo, *to)
		})
	}
}
