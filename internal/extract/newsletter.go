package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

// Newsletter extracts candidates from an email body. HTML bodies are
// partitioned into event-styled sections if any exist, otherwise into
// date-bearing list items, table rows and mid-sized blocks. Plain-text
// bodies, and HTML bodies where neither strategy finds anything, are split
// on month-name dates.
func (e *Extractor) Newsletter(body string) ([]event.Candidate, error) {
	if !looksLikeHTML(body) {
		return e.plainText(body), nil
	}

	doc, err := parse(body)
	if err != nil {
		return nil, err
	}

	candidates := make([]event.Candidate, 0)
	for _, s := range discoverSections(doc) {
		text := visibleText(s)
		if !likelyEvent(text) {
			continue
		}
		if c, ok := e.candidate(s, text); ok {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	return e.plainText(blockText(doc.Find("body"))), nil
}

// discoverSections returns candidate containers in document order
func discoverSections(doc *goquery.Document) []*goquery.Selection {
	var out []*goquery.Selection

	doc.Find(newsletterSections).Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	if len(out) > 0 {
		return out
	}

	doc.Find(newsletterBlocks).Each(func(_ int, s *goquery.Selection) {
		text := visibleText(s)
		if !dateIndicator.MatchString(text) {
			return
		}
		if goquery.NodeName(s) == "div" {
			if n := runeLen(text); n <= minDivLength || n >= maxDivLength {
				return
			}
		}
		out = append(out, s)
	})
	return out
}

// likelyEvent filters out dateless, tiny and footer blocks
func likelyEvent(text string) bool {
	if !dateIndicator.MatchString(text) {
		return false
	}
	if runeLen(text) < minBlockLength {
		return false
	}
	return !containsAny(strings.ToLower(text), boilerplatePhrases)
}

// plainText splits text on month-name dates; each block runs from one date
// to the next
func (e *Extractor) plainText(text string) []event.Candidate {
	matches := plainTextDate.FindAllStringIndex(text, -1)
	candidates := make([]event.Candidate, 0, len(matches))

	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		block := strings.TrimSpace(text[m[0]:end])
		if runeLen(block) <= minPlainTextLength || !likelyEvent(block) {
			continue
		}

		title := blockTitle(block)
		if title == "" {
			continue
		}
		candidates = append(candidates, e.textCandidate(title, text[m[0]:m[1]], block))
	}
	return candidates
}

// blockTitle returns the first line that is not just a date. A line that
// starts with a date contributes its remainder when that is long enough.
func blockTitle(block string) string {
	for _, line := range strings.Split(block, "\n") {
		line = collapse(line)
		if line == "" {
			continue
		}
		loc := plainTextDate.FindStringIndex(line)
		if loc == nil || loc[0] != 0 {
			return truncate(line, fallbackTitleLength)
		}
		rest := strings.TrimLeft(line[loc[1]:], " \t-–—:|,.")
		if runeLen(rest) >= minTitleLength {
			return truncate(rest, fallbackTitleLength)
		}
	}
	return ""
}

// textCandidate builds a candidate from plain text using the text scans only.
// The start date is the date the block was split on.
func (e *Extractor) textCandidate(title, date, block string) event.Candidate {
	c := event.NewCandidate(e.opts.Source)
	c.Title = title
	c.Description = truncate(collapse(block), maxDescriptionLength)

	flat := collapse(block)
	if t, ok := event.ParseLenient(date); ok {
		c.StartDate, c.EndDate = event.FormatISO(t), rangeEnd(flat, t)
	} else {
		c.StartDate, c.EndDate = scanDates(flat)
	}

	lowered := strings.ToLower(flat)
	c.Format = detectFormat(lowered, false)
	c.EventType = detectType(lowered)
	c.Registration.Fee = detectFee(flat)

	for _, u := range bareURLs(flat) {
		if c.Location.OnlineURL == "" && isConferencingURL(u.url) {
			c.Location.OnlineURL = u.url
		}
		if c.Registration.URL == "" && (containsAny(strings.ToLower(u.url), registrationKeywords) ||
			containsAny(strings.ToLower(u.before), registrationKeywords)) {
			c.Registration.URL = u.url
		}
	}
	return c
}
