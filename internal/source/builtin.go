package source

import "github.com/pfrederiksen/event-harvest/internal/event"

var builtins = map[string]Override{
	"APsAScraper": {
		Organizer: event.Organizer{Name: "American Psychoanalytic Association", URL: "https://apsa.org"},
		URL:       "https://apsa.org/meetings-events/",
		Selectors: Selectors{Link: `a[href*="register"], a.register-btn`},
		ItemSelectors: []string{
			".event-item",
			".event-card",
			"article.event",
			".events-list .event",
			`[class*="event"]`,
		},
	},
	"BPCScraper": {
		Organizer: event.Organizer{Name: "British Psychoanalytic Council", URL: "https://www.bpc.org.uk"},
		URL:       "https://www.bpc.org.uk/events/",
		Selectors: Selectors{Link: "a[href]"},
		ItemSelectors: []string{
			".event-listing",
			".event-item",
			"article.post",
			".events-grid .event",
			`[class*="event"]`,
		},
		DefaultCountry: "United Kingdom",
	},
	"ChicagoPsychoanalyticScraper": {
		Organizer: event.Organizer{Name: "Chicago Psychoanalytic Society", URL: "https://www.chicagopsychoanalyticsociety.org"},
		URL:       "https://www.chicagopsychoanalyticsociety.org/events",
		ItemSelectors: []string{
			".event",
			".events-list li",
			`[class*="calendar"] .item`,
			"article",
			".upcoming-events .event-item",
		},
		DefaultCity:    "Chicago",
		DefaultCountry: "USA",
	},
	"PsychoanalyticInquiryScraper": {
		Organizer: event.Organizer{Name: "Psychoanalytic Inquiry", URL: "https://www.psychoanalyticinquiry.com"},
		URL:       "https://www.psychoanalyticinquiry.com/event-calendar/",
		Selectors: Selectors{
			Title:       "h2.fusion-title-heading, .fusion-post-title, .entry-title",
			Date:        ".fusion-text p, .updated, .published",
			Description: ".fusion-text",
			Link:        "h2.fusion-title-heading a, .fusion-post-title a, a.fusion-read-more, a[href]",
		},
		ItemSelectors: []string{
			".post-card",
			"article.post",
			".event",
			".events .item",
			"article.event",
			`[class*="event"]`,
			".calendar-item",
		},
	},
}
