package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

// Hints are optional per-source selectors for individual fields
type Hints struct {
	Title       string
	Date        string
	Description string
	Location    string
	Link        string
}

// Options configures an Extractor
type Options struct {
	Hints Hints
	// List scopes item discovery to the first element it matches.
	List string
	// Items are container selectors tried in order; the first one that
	// matches anything wins.
	Items []string
	// BaseURL absolutizes relative links.
	BaseURL string
	// Source is copied onto every candidate.
	Source event.Provenance
	// LinkFallback uses the first link (Hints.Link, default any anchor) as
	// the registration URL when no registration link was found.
	LinkFallback bool
}

type compiledHints struct {
	title, date, description, location, link goquery.Matcher
}

// Extractor produces candidates from raw content for one source
type Extractor struct {
	opts        Options
	hints       compiledHints
	items       []goquery.Matcher
	list        goquery.Matcher
	defaultLink goquery.Matcher
}

// compile parses a selector group; an empty selector yields a nil matcher
func compile(field, sel string) (goquery.Matcher, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil, nil
	}
	m, err := cascadia.Compile(sel)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: invalid %s selector %q", field, sel)
	}
	return m, nil
}

// New compiles the hints and item selectors in opts
func New(opts Options) (*Extractor, error) {
	e := &Extractor{opts: opts}

	var err error
	fields := []struct {
		name string
		sel  string
		dst  *goquery.Matcher
	}{
		{"title", opts.Hints.Title, &e.hints.title},
		{"date", opts.Hints.Date, &e.hints.date},
		{"description", opts.Hints.Description, &e.hints.description},
		{"location", opts.Hints.Location, &e.hints.location},
		{"link", opts.Hints.Link, &e.hints.link},
		{"list", opts.List, &e.list},
		{"link", defaultLinkSelector, &e.defaultLink},
	}
	for _, f := range fields {
		if *f.dst, err = compile(f.name, f.sel); err != nil {
			return nil, err
		}
	}

	items := opts.Items
	if len(items) == 0 {
		items = []string{defaultItemSelector}
	}
	for _, sel := range items {
		m, err := compile("item", sel)
		if err != nil {
			return nil, err
		}
		if m != nil {
			e.items = append(e.items, m)
		}
	}

	return e, nil
}

// ValidateHints reports whether every selector in h compiles
func ValidateHints(h Hints) error {
	_, err := New(Options{Hints: h})
	return err
}

func parse(content string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse document")
	}
	return doc, nil
}

// Page extracts candidates from a listing page (or plain text). Items are
// found with the configured selectors; when none match, the whole body is
// one container. Candidates keep document order.
func (e *Extractor) Page(content string) ([]event.Candidate, error) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}

	scope := doc.Selection
	if e.list != nil {
		if found := doc.FindMatcher(e.list).First(); found.Length() > 0 {
			scope = found
		}
	}

	var containers *goquery.Selection
	for _, m := range e.items {
		if found := scope.FindMatcher(m); found.Length() > 0 {
			containers = found
			break
		}
	}
	if containers == nil {
		containers = doc.Find("body")
	}

	candidates := make([]event.Candidate, 0, containers.Length())
	containers.Each(func(_ int, s *goquery.Selection) {
		if c, ok := e.Candidate(s); ok {
			candidates = append(candidates, c)
		}
	})
	return candidates, nil
}

// Candidate extracts one candidate from a container. ok is false when no
// title could be found.
func (e *Extractor) Candidate(s *goquery.Selection) (event.Candidate, bool) {
	text := visibleText(s)
	if text == "" {
		return event.Candidate{}, false
	}
	return e.candidate(s, text)
}

func (e *Extractor) candidate(s *goquery.Selection, text string) (event.Candidate, bool) {
	c := event.NewCandidate(e.opts.Source)

	c.Title = e.title(s)
	if c.Title == "" {
		return event.Candidate{}, false
	}
	c.Description = e.description(s)
	c.StartDate, c.EndDate = e.dates(s, text)

	lowered := strings.ToLower(text)
	loc, hasLocation := e.location(s)
	c.Location = loc
	c.Location.OnlineURL = e.onlineURL(s, text)
	c.Format = detectFormat(lowered, hasLocation)
	c.EventType = detectType(lowered)

	c.Registration.URL = e.registrationURL(s, text)
	c.Registration.Fee = detectFee(text)
	if c.Registration.URL == "" && e.opts.LinkFallback {
		c.Registration.URL = e.linkURL(s)
	}

	return c, true
}
