package event

import (
	"sort"
	"time"
)

// DiffResult contains the results of comparing two catalogs
type DiffResult struct {
	New     []*Event
	Updated []*Event
	Removed []*Event
	Changes []*Change
}

// Change represents a field-level change detected in an event
type Change struct {
	EventID    string    `json:"event_id"`
	ChangeType string    `json:"change_type"` // "new", "title", "date", "location", "registration", "description"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// Diff compares the stored catalog against the reconciled one, keyed by ID
func Diff(previous, current []Event, now time.Time) *DiffResult {
	result := &DiffResult{
		New:     make([]*Event, 0),
		Updated: make([]*Event, 0),
		Removed: make([]*Event, 0),
		Changes: make([]*Change, 0),
	}

	byID := make(map[string]*Event, len(previous))
	for i := range previous {
		byID[previous[i].ID] = &previous[i]
	}

	seen := make(map[string]bool, len(current))
	for i := range current {
		evt := &current[i]
		seen[evt.ID] = true

		changes := DetectChanges(byID[evt.ID], evt, now)
		if len(changes) == 0 {
			continue
		}
		if changes[0].ChangeType == "new" {
			result.New = append(result.New, evt)
		} else {
			result.Updated = append(result.Updated, evt)
		}
		result.Changes = append(result.Changes, changes...)
	}

	for i := range previous {
		if !seen[previous[i].ID] {
			result.Removed = append(result.Removed, &previous[i])
		}
	}

	sort.SliceStable(result.New, func(i, j int) bool {
		return result.New[i].StartDate < result.New[j].StartDate
	})

	return result
}

// DetectChanges compares two versions of an event and returns detected changes
func DetectChanges(previous, current *Event, now time.Time) []*Change {
	if previous == nil {
		return []*Change{{
			EventID:    current.ID,
			ChangeType: "new",
			NewValue:   current.Title,
			DetectedAt: now,
		}}
	}

	var changes []*Change
	add := func(kind, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, &Change{
			EventID:    current.ID,
			ChangeType: kind,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: now,
		})
	}

	add("title", previous.Title, current.Title)
	add("date", previous.StartDate, current.StartDate)
	add("location", previous.Location.Venue, current.Location.Venue)
	add("registration", previous.Registration.URL, current.Registration.URL)
	add("description", previous.Description, current.Description)

	return changes
}
