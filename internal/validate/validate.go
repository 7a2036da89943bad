package validate

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

const (
	MinTitleLength = 5
	MaxTitleLength = 500

	DefaultMaxPastDays   = 30
	DefaultMaxFutureDays = 1095

	minURLLength = 10
)

// Completeness checks in scoring order. Weights sum to 100.
const (
	FieldTitle           = "title"
	FieldStartDate       = "start_date"
	FieldEventType       = "event_type"
	FieldFormat          = "format"
	FieldDescription     = "description"
	FieldLocation        = "location"
	FieldOrganizer       = "organizer"
	FieldRegistrationURL = "registration_url"
)

type check struct {
	field  string
	weight int
	passes func(c *event.Candidate) bool
}

var checks = []check{
	{FieldTitle, 20, func(c *event.Candidate) bool { return c.Title != "" }},
	{FieldStartDate, 20, func(c *event.Candidate) bool { return c.StartDate != "" }},
	{FieldEventType, 10, func(c *event.Candidate) bool { return c.EventType != "" && c.EventType != event.TypeOther }},
	{FieldFormat, 10, func(c *event.Candidate) bool { return c.Format != "" }},
	{FieldDescription, 10, func(c *event.Candidate) bool { return c.Description != "" }},
	{FieldLocation, 10, func(c *event.Candidate) bool { return c.Location.Meaningful() }},
	{FieldOrganizer, 10, func(c *event.Candidate) bool { return c.Organizer.Known() }},
	{FieldRegistrationURL, 10, func(c *event.Candidate) bool { return ValidURL(c.Registration.URL) }},
}

// Validator applies the acceptance rules relative to a reference time
type Validator struct {
	// Now defaults to time.Now.
	Now           func() time.Time
	MaxPastDays   int
	MaxFutureDays int
}

// New returns a Validator with the default date window
func New() *Validator {
	return &Validator{
		Now:           time.Now,
		MaxPastDays:   DefaultMaxPastDays,
		MaxFutureDays: DefaultMaxFutureDays,
	}
}

func (v *Validator) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

// Validate reports whether c is acceptable, with every reason it is not
func (v *Validator) Validate(c *event.Candidate) (bool, []string) {
	var reasons []string

	title := strings.TrimSpace(c.Title)
	switch n := runeCount(title); {
	case n == 0:
		reasons = append(reasons, "missing title")
	case n < MinTitleLength:
		reasons = append(reasons, fmt.Sprintf("title too short (%d < %d)", n, MinTitleLength))
	case n > MaxTitleLength:
		reasons = append(reasons, fmt.Sprintf("title too long (%d > %d)", n, MaxTitleLength))
	}
	if title != "" {
		if reason := nonEventReason(title); reason != "" {
			reasons = append(reasons, reason)
		}
	}

	if c.Source.URL == "" {
		reasons = append(reasons, "missing source url")
	}

	if c.StartDate != "" {
		start, ok := c.Start()
		if !ok {
			reasons = append(reasons, "invalid start_date: "+c.StartDate)
		} else if reason := v.checkWindow(start); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	if c.EndDate != "" {
		if _, ok := c.End(); !ok {
			reasons = append(reasons, "invalid end_date: "+c.EndDate)
		}
	}

	if c.Format != "" && !c.Format.Valid() {
		reasons = append(reasons, "invalid format: "+string(c.Format))
	}
	if c.EventType != "" && !c.EventType.Valid() {
		reasons = append(reasons, "invalid event_type: "+string(c.EventType))
	}

	if !ValidURL(c.Registration.URL) && !ValidURL(c.Source.URL) {
		reasons = append(reasons, "no valid url")
	}

	return len(reasons) == 0, reasons
}

// checkWindow bounds start to [now-MaxPastDays, now+MaxFutureDays], inclusive
func (v *Validator) checkWindow(start time.Time) string {
	now := v.now()
	if earliest := now.AddDate(0, 0, -v.MaxPastDays); start.Before(earliest) {
		return fmt.Sprintf("start_date more than %d days in the past", v.MaxPastDays)
	}
	if latest := now.AddDate(0, 0, v.MaxFutureDays); start.After(latest) {
		return fmt.Sprintf("start_date more than %d days in the future", v.MaxFutureDays)
	}
	return ""
}

// Score returns the completeness score of c and the checks it failed, in
// check order
func Score(c *event.Candidate) (int, []string) {
	score := 0
	missing := make([]string, 0)
	for _, chk := range checks {
		if chk.passes(c) {
			score += chk.weight
		} else {
			missing = append(missing, chk.field)
		}
	}
	return score, missing
}

// Accept validates c and, when it passes, promotes it to an Event. The
// reasons are returned either way.
func (v *Validator) Accept(c event.Candidate) (*event.Event, []string) {
	ok, reasons := v.Validate(&c)
	if !ok {
		return nil, reasons
	}

	c.Title = strings.TrimSpace(c.Title)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	now := v.now().UTC()
	e := &event.Event{
		ID:        event.GenerateID(c.Source.URL, c.Title, c.StartDate),
		Candidate: c,
		CreatedAt: now,
		UpdatedAt: now,
	}
	Rescore(e)
	return e, nil
}

// Rescore recomputes the completeness fields of e in place
func Rescore(e *event.Event) {
	e.CompletenessScore, e.MissingFields = Score(&e.Candidate)
}

// ValidURL is the minimal link check: an http(s) scheme, at least ten
// characters and a dot somewhere in it
func ValidURL(raw string) bool {
	if len(raw) < minURLLength || !strings.Contains(raw, ".") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}
