// Package dedup folds batches of validated events into a canonical set,
// merging records that describe the same event.
package dedup

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/logger"
)

const (
	DefaultThreshold     = 0.7
	DefaultToleranceDays = 1
)

// Deduplicator clusters events by title similarity and start date
type Deduplicator struct {
	// Threshold is the minimum Jaccard similarity of normalized titles.
	Threshold float64
	// ToleranceDays is the largest start date gap, in calendar days, between
	// duplicates. Only applies when both events have a start date.
	ToleranceDays int
	// Now stamps merged records; defaults to time.Now.
	Now func() time.Time
}

// New returns a Deduplicator with the default threshold and tolerance
func New() *Deduplicator {
	return &Deduplicator{
		Threshold:     DefaultThreshold,
		ToleranceDays: DefaultToleranceDays,
		Now:           time.Now,
	}
}

func (d *Deduplicator) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

// Deduplicate returns one representative per duplicate group, in order of
// first occurrence. A later duplicate is merged into the representative it
// first matches.
func (d *Deduplicator) Deduplicate(events []event.Event) []event.Event {
	unique := make([]event.Event, 0, len(events))

	for i := range events {
		incoming := &events[i]
		merged := false
		for j := range unique {
			if d.IsDuplicate(&unique[j], incoming) {
				logger.Debug("Merging duplicate event", logger.Fields{
					"kept_id":     unique[j].ID,
					"incoming_id": incoming.ID,
					"title":       incoming.Title,
				})
				unique[j] = d.Merge(&unique[j], incoming)
				merged = true
				break
			}
		}
		if !merged {
			unique = append(unique, clone(incoming))
		}
	}

	if len(unique) < len(events) {
		logger.Info("Deduplicated events", logger.Fields{"input": len(events), "unique": len(unique)})
	}
	return unique
}

// IsDuplicate reports whether a and b describe the same event
func (d *Deduplicator) IsDuplicate(a, b *event.Event) bool {
	if Similarity(a.Title, b.Title) < d.Threshold {
		return false
	}

	startA, okA := a.Start()
	startB, okB := b.Start()
	if okA && okB {
		return dayGap(startA, startB) <= d.ToleranceDays
	}
	return true
}

// dayGap is the number of calendar days between a and b in UTC
func dayGap(a, b time.Time) int {
	dayA := truncateDay(a.UTC())
	dayB := truncateDay(b.UTC())
	return int(math.Abs(dayA.Sub(dayB).Hours() / 24))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var (
	nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	lower   = cases.Lower(language.Und)
)

// Normalize lowercases a title, strips punctuation and collapses whitespace
func Normalize(title string) string {
	title = lower.String(norm.NFKC.String(title))
	title = nonWord.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(title), " ")
}

// Similarity is the Jaccard similarity of the normalized word sets of a and b.
// An empty title is similar to nothing.
func Similarity(a, b string) float64 {
	wordsA := wordSet(Normalize(a))
	wordsB := wordSet(Normalize(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	shared := 0
	for w := range wordsA {
		if wordsB[w] {
			shared++
		}
	}
	union := len(wordsA) + len(wordsB) - shared
	return float64(shared) / float64(union)
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(text) {
		set[w] = true
	}
	return set
}

// Merge returns a new event combining a and b. a's non-empty values win; b
// fills the gaps. Identity and creation time come from a.
func (d *Deduplicator) Merge(a, b *event.Event) event.Event {
	m := clone(a)

	fill(&m.Description, b.Description)
	fill(&m.Timezone, b.Timezone)
	fill(&m.StartDate, b.StartDate)
	fill(&m.EndDate, b.EndDate)
	if m.EventType == "" || m.EventType == event.TypeOther {
		if b.EventType != "" {
			m.EventType = b.EventType
		}
	}
	if m.Format == "" {
		m.Format = b.Format
	}

	fill(&m.Location.Venue, b.Location.Venue)
	fill(&m.Location.Address, b.Location.Address)
	fill(&m.Location.City, b.Location.City)
	fill(&m.Location.Country, b.Location.Country)
	fill(&m.Location.OnlineURL, b.Location.OnlineURL)

	if !m.Organizer.Known() && b.Organizer.Known() {
		m.Organizer.Name = b.Organizer.Name
	}
	fill(&m.Organizer.URL, b.Organizer.URL)
	fill(&m.Organizer.Email, b.Organizer.Email)

	fill(&m.Registration.URL, b.Registration.URL)
	fill(&m.Registration.Deadline, b.Registration.Deadline)
	fill(&m.Registration.Fee, b.Registration.Fee)

	m.Tags = unionTags(a.Tags, b.Tags)
	m.UpdatedAt = d.now()
	return m
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// unionTags returns the sorted set union of a and b
func unionTags(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		set[t] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// clone copies e without sharing slices
func clone(e *event.Event) event.Event {
	c := *e
	c.Tags = append([]string{}, e.Tags...)
	c.MissingFields = append([]string{}, e.MissingFields...)
	return c
}
