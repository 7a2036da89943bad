package source

import (
	"regexp"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

// Scraper types
const (
	ScraperGeneric = "generic"
	ScraperCustom  = "custom"
)

// Selectors are per-source CSS selector hints. Each may hold a selector
// group ("h2.title, .entry-title").
type Selectors struct {
	EventList   string `json:"event_list,omitempty" yaml:"event_list"`
	EventItem   string `json:"event_item,omitempty" yaml:"event_item"`
	Title       string `json:"title,omitempty" yaml:"title"`
	Date        string `json:"date,omitempty" yaml:"date"`
	Description string `json:"description,omitempty" yaml:"description"`
	Location    string `json:"location,omitempty" yaml:"location"`
	Link        string `json:"link,omitempty" yaml:"link"`
}

// Merge returns s with empty selectors filled from other
func (s Selectors) Merge(other Selectors) Selectors {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Selectors{
		EventList:   pick(s.EventList, other.EventList),
		EventItem:   pick(s.EventItem, other.EventItem),
		Title:       pick(s.Title, other.Title),
		Date:        pick(s.Date, other.Date),
		Description: pick(s.Description, other.Description),
		Location:    pick(s.Location, other.Location),
		Link:        pick(s.Link, other.Link),
	}
}

// Config holds how a source is reached and parsed
type Config struct {
	URL                 string    `json:"url,omitempty"`
	ScraperType         string    `json:"scraper_type,omitempty"`
	CustomParser        string    `json:"custom_parser,omitempty"`
	Selectors           Selectors `json:"selectors,omitempty"`
	GmailSender         string    `json:"gmail_sender,omitempty"`
	GmailSubjectPattern string    `json:"gmail_subject_pattern,omitempty"`
}

// Descriptor identifies one origin of events
type Descriptor struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Kind            event.SourceKind `json:"type"`
	Enabled         *bool            `json:"enabled,omitempty"`
	Config          Config           `json:"config"`
	ScrapeFrequency string           `json:"scrape_frequency,omitempty"`
	LastScraped     *time.Time       `json:"last_scraped,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// IsEnabled reports whether the source should be scraped; unset means enabled
func (d *Descriptor) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Handler returns the override id for custom sources, or ""
func (d *Descriptor) Handler() string {
	if d.Config.ScraperType == ScraperCustom {
		return d.Config.CustomParser
	}
	return ""
}

// Validate checks that the descriptor can be run
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return eris.New("source: missing id")
	}

	switch d.Kind {
	case event.KindWebsite:
		if d.Config.URL == "" && d.Handler() == "" {
			return eris.Errorf("source %s: website without url", d.ID)
		}
	case event.KindNewsletter:
		if d.Config.GmailSender == "" {
			return eris.Errorf("source %s: newsletter without sender", d.ID)
		}
		if d.Config.GmailSubjectPattern != "" {
			if _, err := regexp.Compile(d.Config.GmailSubjectPattern); err != nil {
				return eris.Wrapf(err, "source %s: subject pattern", d.ID)
			}
		}
	default:
		return eris.Errorf("source %s: unknown type %q", d.ID, d.Kind)
	}

	switch d.Config.ScraperType {
	case "", ScraperGeneric:
	case ScraperCustom:
		if d.Config.CustomParser == "" {
			return eris.Errorf("source %s: custom scraper without parser", d.ID)
		}
	default:
		return eris.Errorf("source %s: unknown scraper type %q", d.ID, d.Config.ScraperType)
	}

	return nil
}

// Enabled filters sources down to the enabled ones, keeping order
func Enabled(sources []Descriptor) []Descriptor {
	out := make([]Descriptor, 0, len(sources))
	for _, s := range sources {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}
