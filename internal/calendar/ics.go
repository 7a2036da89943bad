// Package calendar exports catalog events as iCalendar (RFC 5545) data.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

const (
	prodID    = "-//Event Harvest//event-harvest//EN"
	uidDomain = "event-harvest"

	// defaultDuration applies to timed events without an end
	defaultDuration = 2 * time.Hour

	// maxLineOctets is the folding limit, excluding the CRLF
	maxLineOctets = 75
)

// GenerateICS generates an iCalendar document for a single event
func GenerateICS(evt *event.Event, now time.Time) string {
	var b strings.Builder
	_ = Write(&b, []event.Event{*evt}, now)
	return b.String()
}

// Write renders events as one VCALENDAR. Events without a parseable start
// date are skipped. now stamps DTSTAMP.
func Write(w io.Writer, events []event.Event, now time.Time) error {
	cw := &calendarWriter{w: w}

	cw.line("BEGIN:VCALENDAR")
	cw.line("VERSION:2.0")
	cw.line("PRODID:" + prodID)
	cw.line("CALSCALE:GREGORIAN")
	cw.line("METHOD:PUBLISH")
	for i := range events {
		writeEvent(cw, &events[i], now)
	}
	cw.line("END:VCALENDAR")

	return eris.Wrap(cw.err, "calendar: write")
}

func writeEvent(cw *calendarWriter, evt *event.Event, now time.Time) {
	start, ok := evt.Start()
	if !ok {
		return
	}

	cw.line("BEGIN:VEVENT")
	cw.line(fmt.Sprintf("UID:%s@%s", evt.ID, uidDomain))
	cw.line("DTSTAMP:" + formatICSTime(now))

	if allDay(start) {
		// DTEND is exclusive for all-day events
		end := start.AddDate(0, 0, 1)
		if e, ok := evt.End(); ok && e.After(start) {
			end = e.AddDate(0, 0, 1)
		}
		cw.line("DTSTART;VALUE=DATE:" + formatICSDate(start))
		cw.line("DTEND;VALUE=DATE:" + formatICSDate(end))
	} else {
		end := start.Add(defaultDuration)
		if e, ok := evt.End(); ok && e.After(start) {
			end = e
		}
		cw.line("DTSTART:" + formatICSTime(start))
		cw.line("DTEND:" + formatICSTime(end))
	}

	cw.line("SUMMARY:" + escapeICS(evt.Title))
	if desc := description(evt); desc != "" {
		cw.line("DESCRIPTION:" + escapeICS(desc))
	}
	if loc := location(evt); loc != "" {
		cw.line("LOCATION:" + escapeICS(loc))
	}
	if link := eventURL(evt); link != "" {
		cw.line("URL:" + link)
	}
	if evt.Organizer.Known() {
		cw.line("ORGANIZER;CN=" + quoteParam(evt.Organizer.Name) + ":" + organizerURI(evt.Organizer))
	}
	if evt.EventType != "" && evt.EventType != event.TypeOther {
		cw.line("CATEGORIES:" + strings.ToUpper(string(evt.EventType)))
	}
	cw.line("STATUS:CONFIRMED")
	cw.line("SEQUENCE:0")
	cw.line("TRANSP:OPAQUE")
	cw.line("END:VEVENT")
}

// allDay reports whether start carries no time of day
func allDay(t time.Time) bool {
	t = t.UTC()
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}

func description(evt *event.Event) string {
	var parts []string
	if evt.Description != "" {
		parts = append(parts, evt.Description)
	}
	if evt.Registration.Fee != "" {
		parts = append(parts, "Fee: "+evt.Registration.Fee)
	}
	if evt.Registration.URL != "" {
		parts = append(parts, "Register at: "+evt.Registration.URL)
	}
	if evt.Location.OnlineURL != "" {
		parts = append(parts, "Join online: "+evt.Location.OnlineURL)
	}
	return strings.Join(parts, "\n\n")
}

func location(evt *event.Event) string {
	var parts []string
	for _, p := range []string{evt.Location.Venue, evt.Location.City, evt.Location.Country} {
		if p != "" && !containsPart(parts, p) {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return evt.Location.OnlineURL
	}
	return strings.Join(parts, ", ")
}

// containsPart skips a city or country already spelled out in the venue
func containsPart(parts []string, p string) bool {
	for _, existing := range parts {
		if strings.Contains(strings.ToLower(existing), strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func eventURL(evt *event.Event) string {
	if evt.Registration.URL != "" {
		return evt.Registration.URL
	}
	if strings.HasPrefix(evt.Source.URL, "http") {
		return evt.Source.URL
	}
	return ""
}

func organizerURI(o event.Organizer) string {
	if o.Email != "" {
		return "mailto:" + o.Email
	}
	if o.URL != "" {
		return o.URL
	}
	return "mailto:noreply@invalid"
}

func quoteParam(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "'") + `"`
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func formatICSDate(t time.Time) string {
	return t.UTC().Format("20060102")
}

// escapeICS escapes special characters for iCalendar text values
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// calendarWriter writes folded CRLF lines and keeps the first error
type calendarWriter struct {
	w   io.Writer
	err error
}

func (cw *calendarWriter) line(s string) {
	if cw.err != nil {
		return
	}
	_, cw.err = io.WriteString(cw.w, fold(s)+"\r\n")
}

// fold splits a content line into chunks of at most maxLineOctets octets,
// continuation lines starting with a space. UTF-8 sequences are never split.
func fold(s string) string {
	if len(s) <= maxLineOctets {
		return s
	}

	var b strings.Builder
	limit := maxLineOctets
	width := 0
	for _, r := range s {
		n := len(string(r))
		if width+n > limit {
			b.WriteString("\r\n ")
			width = 0
			// the leading space counts toward the next line
			limit = maxLineOctets - 1
		}
		b.WriteRune(r)
		width += n
	}
	return b.String()
}
