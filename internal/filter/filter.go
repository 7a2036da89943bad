// Package filter narrows the stored catalog for listing and export.
//
// A Filter combines optional criteria; an event must pass all of them:
//   - Date range (from/to, inclusive, on the event's start date)
//   - Event types and formats (any of the listed values)
//   - Cities (substring matching, case-insensitive)
//   - Title text (substring matching, case-insensitive)
//   - Minimum completeness score
//
// Example usage:
//
//	// Online seminars in March with a usable record
//	f := filter.NewFilter()
//	f.DateFrom, f.DateTo, _ = filter.ParseDateRange("March", time.Now())
//	f.Types = []event.Type{event.TypeSeminar}
//	f.Formats = []event.Format{event.FormatOnline}
//	f.MinScore = 60
//
//	filtered := f.Apply(events)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

// Filter represents catalog filtering criteria
type Filter struct {
	// Date range filtering. Events without a start date fail an active
	// range.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Types   []event.Type   `json:"types,omitempty"`
	Formats []event.Format `json:"formats,omitempty"`

	// City filtering (case-insensitive substring match)
	Cities []string `json:"cities,omitempty"`

	// Query matches a substring of the title, case-insensitively.
	Query string `json:"query,omitempty"`

	MinScore int `json:"min_score,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Types:   []event.Type{},
		Formats: []event.Format{},
		Cities:  []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Types) == 0 &&
		len(f.Formats) == 0 &&
		len(f.Cities) == 0 &&
		f.Query == "" &&
		f.MinScore == 0
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
func (f *Filter) Matches(evt *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	if f.DateFrom != nil || f.DateTo != nil {
		start, ok := evt.Start()
		if !ok {
			return false
		}
		if f.DateFrom != nil && start.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && start.After(*f.DateTo) {
			return false
		}
	}

	if len(f.Types) > 0 && !containsType(f.Types, evt.EventType) {
		return false
	}
	if len(f.Formats) > 0 && !containsFormat(f.Formats, evt.Format) {
		return false
	}

	if len(f.Cities) > 0 {
		matched := false
		cityLower := strings.ToLower(evt.Location.City)
		for _, city := range f.Cities {
			if strings.Contains(cityLower, strings.ToLower(city)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.Query != "" && !strings.Contains(strings.ToLower(evt.Title), strings.ToLower(f.Query)) {
		return false
	}

	return evt.CompletenessScore >= f.MinScore
}

func containsType(types []event.Type, t event.Type) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

func containsFormat(formats []event.Format, f event.Format) bool {
	for _, want := range formats {
		if want == f {
			return true
		}
	}
	return false
}

// Apply returns the matching events in their original order. The input
// slice is never modified.
func (f *Filter) Apply(events []event.Event) []event.Event {
	filtered := make([]event.Event, 0, len(events))
	for i := range events {
		if f.Matches(&events[i]) {
			filtered = append(filtered, events[i])
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Mar 1, 2026 | To: Mar 31, 2026 | Types: seminar | Min score: 60"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Types) > 0 {
		names := make([]string, len(f.Types))
		for i, t := range f.Types {
			names[i] = string(t)
		}
		parts = append(parts, fmt.Sprintf("Types: %s", strings.Join(names, ", ")))
	}
	if len(f.Formats) > 0 {
		names := make([]string, len(f.Formats))
		for i, v := range f.Formats {
			names[i] = string(v)
		}
		parts = append(parts, fmt.Sprintf("Formats: %s", strings.Join(names, ", ")))
	}
	if len(f.Cities) > 0 {
		parts = append(parts, fmt.Sprintf("Cities: %s", strings.Join(f.Cities, ", ")))
	}
	if f.Query != "" {
		parts = append(parts, fmt.Sprintf("Title: %q", f.Query))
	}
	if f.MinScore > 0 {
		parts = append(parts, fmt.Sprintf("Min score: %d", f.MinScore))
	}

	return strings.Join(parts, " | ")
}

// Clone creates a deep copy of the filter.
func (f *Filter) Clone() *Filter {
	clone := &Filter{
		Query:    f.Query,
		MinScore: f.MinScore,
		Types:    append([]event.Type{}, f.Types...),
		Formats:  append([]event.Format{}, f.Formats...),
		Cities:   append([]string{}, f.Cities...),
	}

	if f.DateFrom != nil {
		df := *f.DateFrom
		clone.DateFrom = &df
	}
	if f.DateTo != nil {
		dt := *f.DateTo
		clone.DateTo = &dt
	}

	return clone
}
