package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/fetch"
)

// firstMatch returns the first element matching m within s, or nil
func firstMatch(s *goquery.Selection, m goquery.Matcher) *goquery.Selection {
	if m == nil {
		return nil
	}
	found := s.FindMatcher(m).First()
	if found.Length() == 0 {
		return nil
	}
	return found
}

func (e *Extractor) title(s *goquery.Selection) string {
	if el := firstMatch(s, e.hints.title); el != nil {
		if text := visibleText(el); text != "" {
			return truncate(text, maxTitleLength)
		}
	}

	for _, sel := range titleSelectors {
		el := s.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if text := visibleText(el); runeLen(text) > minTitleLength {
			return truncate(text, maxTitleLength)
		}
	}

	return truncate(visibleText(s), fallbackTitleLength)
}

func (e *Extractor) description(s *goquery.Selection) string {
	if el := firstMatch(s, e.hints.description); el != nil {
		if text := visibleText(el); text != "" {
			return truncate(text, maxDescriptionLength)
		}
	}

	for _, sel := range descriptionSelectors {
		el := s.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if text := visibleText(el); runeLen(text) > minDescriptionLength {
			return truncate(text, maxDescriptionLength)
		}
	}
	return ""
}

// dates returns ISO start and end dates; either may be empty
func (e *Extractor) dates(s *goquery.Selection, text string) (string, string) {
	if el := firstMatch(s, e.hints.date); el != nil {
		if start, end, ok := dateFromElement(el); ok {
			return start, end
		}
	}

	for _, sel := range dateSelectors {
		el := s.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if start, end, ok := dateFromElement(el); ok {
			return start, end
		}
	}

	if t, ok := event.ParseLenient(text); ok {
		return event.FormatISO(t), rangeEnd(text, t)
	}

	return scanDates(text)
}

// dateFromElement reads a machine-readable datetime attribute, else the text
func dateFromElement(el *goquery.Selection) (string, string, bool) {
	if attr, ok := el.Attr("datetime"); ok {
		if t, ok := event.ParseISO(attr); ok {
			return event.FormatISO(t), "", true
		}
		if t, ok := event.ParseLenient(attr); ok {
			return event.FormatISO(t), "", true
		}
	}
	text := visibleText(el)
	if t, ok := event.ParseLenient(text); ok {
		return event.FormatISO(t), rangeEnd(text, t), true
	}
	// date elements often carry a label ("When: March 15, 2026")
	if start, end := scanDates(text); start != "" {
		return start, end, true
	}
	return "", "", false
}

// scanDates runs the regular-expression battery over free text
func scanDates(text string) (string, string) {
	for _, re := range datePatterns {
		match := re.FindString(text)
		if match == "" {
			continue
		}
		if t, ok := event.ParseLenient(match); ok {
			return event.FormatISO(t), rangeEnd(match, t)
		}
	}
	return "", ""
}

// rangeEnd returns the end of a "Month D1-D2, YYYY" range starting at start
func rangeEnd(text string, start time.Time) string {
	m := dateRangePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	end, ok := event.ParseLenient(m[1] + " " + m[3] + ", " + m[4])
	if !ok || !end.After(start) {
		return ""
	}
	return event.FormatISO(end)
}

func detectFormat(lowered string, hasLocation bool) event.Format {
	for _, group := range formatKeywords {
		if containsAny(lowered, group.keywords) {
			return group.format
		}
	}
	if hasLocation {
		return event.FormatInPerson
	}
	return event.FormatOnline
}

func detectType(lowered string) event.Type {
	for _, group := range typeKeywords {
		if containsAny(lowered, group.keywords) {
			return group.eventType
		}
	}
	return event.TypeOther
}

// location reads the first location-like element; found reports whether
// such an element exists at all
func (e *Extractor) location(s *goquery.Selection) (loc event.Location, found bool) {
	el := firstMatch(s, e.hints.location)
	if el == nil {
		for _, sel := range locationSelectors {
			if candidate := s.Find(sel).First(); candidate.Length() > 0 {
				el = candidate
				break
			}
		}
	}
	if el == nil {
		return loc, false
	}

	text := visibleText(el)
	if text == "" {
		return loc, true
	}
	loc.Venue = truncate(text, maxVenueLength)
	parts := strings.Split(text, ",")
	if len(parts) >= 2 {
		loc.City = strings.TrimSpace(parts[0])
		loc.Country = strings.TrimSpace(parts[len(parts)-1])
	}
	return loc, true
}

// conferencingHosts are matched on the full host name
var conferencingHosts = map[string]bool{
	"meet.google.com":     true,
	"teams.microsoft.com": true,
	"teams.live.com":      true,
}

// conferencingDomains are matched on the registrable domain
var conferencingDomains = map[string]bool{
	"zoom.us":         true,
	"zoom.com":        true,
	"webex.com":       true,
	"gotomeeting.com": true,
	"gotowebinar.com": true,
	"whereby.com":     true,
	"jit.si":          true,
}

// isConferencingURL reports whether link points at a video-conferencing service
func isConferencingURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if conferencingHosts[host] {
		return true
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	return conferencingDomains[domain]
}

// onlineURL returns the first conferencing link among anchors, then bare URLs
func (e *Extractor) onlineURL(s *goquery.Selection, text string) string {
	var found string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := fetch.ResolveURL(a.AttrOr("href", ""), e.opts.BaseURL)
		if isConferencingURL(href) {
			found = href
			return false
		}
		return true
	})
	if found != "" {
		return found
	}
	for _, u := range bareURLs(text) {
		if isConferencingURL(u.url) {
			return u.url
		}
	}
	return ""
}

// registrationURL returns the first anchor whose text or href signals
// registration, else the first bare URL labelled or named that way
func (e *Extractor) registrationURL(s *goquery.Selection, text string) string {
	var found string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		if containsAny(strings.ToLower(href), registrationKeywords) ||
			containsAny(strings.ToLower(visibleText(a)), registrationKeywords) {
			found = fetch.ResolveURL(href, e.opts.BaseURL)
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	for _, u := range bareURLs(text) {
		if containsAny(strings.ToLower(u.url), registrationKeywords) ||
			containsAny(strings.ToLower(u.before), registrationKeywords) {
			return u.url
		}
	}
	return ""
}

// linkURL returns the first link matched by the link hint, absolutized
func (e *Extractor) linkURL(s *goquery.Selection) string {
	m := e.hints.link
	if m == nil {
		m = e.defaultLink
	}
	var found string
	s.FindMatcher(m).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		found = fetch.ResolveURL(href, e.opts.BaseURL)
		return false
	})
	if found == "" && goquery.NodeName(s) == "a" {
		found = fetch.ResolveURL(s.AttrOr("href", ""), e.opts.BaseURL)
	}
	return found
}

func detectFee(text string) string {
	for _, re := range feePatterns {
		if match := re.FindString(text); match != "" {
			return match
		}
	}
	return ""
}
