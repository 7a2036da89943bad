package cli

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
	SortByScore SortOrder = "score"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByDate, SortByTitle, SortByScore:
		return order, nil
	}
	return "", eris.Errorf("invalid sort order: %s (must be 'date', 'title' or 'score')", s)
}

// sortEvents sorts a slice of events based on the specified sort order
func sortEvents(events []event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(&events[i], &events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(&events[i], &events[j])
		})
	case SortByScore:
		// highest first
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].CompletenessScore != events[j].CompletenessScore {
				return events[i].CompletenessScore > events[j].CompletenessScore
			}
			return compareByDate(&events[i], &events[j])
		})
	}
}

// compareByDate compares two events by their start date
// Returns true if event i should come before event j
func compareByDate(i, j *event.Event) bool {
	dateI, okI := i.Start()
	dateJ, okJ := j.Start()

	// If both dates are valid, compare them
	if okI && okJ {
		if !dateI.Equal(dateJ) {
			return dateI.Before(dateJ)
		}
		return strings.ToLower(i.Title) < strings.ToLower(j.Title)
	}

	// If only one date is valid, put the valid one first
	if okI {
		return true
	}
	if okJ {
		return false
	}

	// If neither has a valid date, sort by title
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
