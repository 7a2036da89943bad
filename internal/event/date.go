package event

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// isoLayouts are the accepted persisted timestamp forms, most specific first
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseISO parses an ISO-8601 timestamp. Values without an offset are UTC.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatISO renders t the way dates are stored on records
func FormatISO(t time.Time) string {
	return t.Format(time.RFC3339)
}

// humanLayouts are tried before the general parser so common listing
// formats resolve the same way every time.
var humanLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 at 3:04 PM",
	"January 2, 2006 at 3:04pm",
}

// maxLenientLength bounds the text handed to the lenient parser; anything
// longer is prose, not a date.
const maxLenientLength = 64

var (
	weekdayPrefix = regexp.MustCompile(`(?i)^(mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s+`)
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	dayRange      = regexp.MustCompile(`(?i)\b([a-z]+\.?\s+\d{1,2})\s*[-–]\s*\d{1,2}\b`)
	hasDigit      = regexp.MustCompile(`\d`)
)

// normalizeDateText strips decorations that the layouts don't cover:
// leading weekdays, ordinal suffixes and the second day of a range.
func normalizeDateText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = weekdayPrefix.ReplaceAllString(text, "")
	text = ordinalSuffix.ReplaceAllString(text, "$1")
	text = dayRange.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// ParseLenient parses a short human-written date such as "March 15, 2026",
// "Sat, 15th March 2026" or "3/15/2026". Zone-less values are UTC.
func ParseLenient(text string) (time.Time, bool) {
	text = normalizeDateText(text)
	if len(text) < 6 || len(text) > maxLenientLength || !hasDigit.MatchString(text) {
		return time.Time{}, false
	}

	for _, layout := range humanLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}

	if t, ok := ParseISO(text); ok {
		return t, true
	}

	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
