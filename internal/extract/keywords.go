package extract

import (
	"regexp"
	"strings"

	"github.com/pfrederiksen/event-harvest/internal/event"
)

// Generic selectors, each tried in order with only its first match considered
var (
	titleSelectors       = []string{"h1", "h2", "h3", ".event-title", ".title", `[class*="title"]`, "a"}
	descriptionSelectors = []string{".description", ".event-description", ".summary", "p", ".content"}
	dateSelectors        = []string{".date", ".event-date", "time[datetime]", `[class*="date"]`}
	locationSelectors    = []string{".location", ".venue", ".address", `[class*="location"]`}
)

// Default container selectors
const (
	defaultItemSelector = ".event"
	defaultLinkSelector = "a[href]"
	newsletterSections  = `.event, [class*="event"], .calendar-item`
	newsletterBlocks    = "li, tr, div"
)

const (
	minTitleLength       = 5
	maxTitleLength       = 500
	fallbackTitleLength  = 200
	minDescriptionLength = 50
	maxDescriptionLength = 2000
	maxVenueLength       = 300

	minBlockLength     = 20
	minDivLength       = 50
	maxDivLength       = 1000
	minPlainTextLength = 30
)

var formatKeywords = []struct {
	format   event.Format
	keywords []string
}{
	{event.FormatHybrid, []string{"hybrid", "both online and in-person", "in-person and online"}},
	{event.FormatOnline, []string{"online", "virtual", "webinar", "zoom", "via zoom", "remote", "web-based"}},
	{event.FormatInPerson, []string{"in-person", "in person", "venue", "location:", "address:", "on-site"}},
}

var typeKeywords = []struct {
	eventType event.Type
	keywords  []string
}{
	{event.TypeConference, []string{"conference", "congress", "symposium", "annual meeting"}},
	{event.TypeWorkshop, []string{"workshop", "training", "hands-on"}},
	{event.TypeLecture, []string{"lecture", "talk", "presentation", "address"}},
	{event.TypeSeminar, []string{"seminar", "colloquium", "discussion"}},
	{event.TypeWebinar, []string{"webinar", "online event", "virtual event"}},
	{event.TypeCourse, []string{"course", "program", "certificate", "training program"}},
}

var registrationKeywords = []string{"register", "registration", "signup", "sign-up", "sign up", "rsvp", "tickets", "book now", "enrol"}

var boilerplatePhrases = []string{"unsubscribe", "privacy policy", "terms of service", "copyright"}

// containsAny reports whether lowered text contains any keyword
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

const monthNames = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	// datePatterns are scanned in order; each first match is re-parsed
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`(?i)\b` + monthNames + `\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+` + monthNames + `\.?,?\s+\d{4}\b`),
		dateRangePattern,
	}

	dateRangePattern = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})\s*[-–]\s*(\d{1,2}),?\s+(\d{4})\b`)

	// dateIndicator decides whether a newsletter block mentions a date at all
	dateIndicator = regexp.MustCompile(`(?i)\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2}|\b` + monthNames +
		`\b|\b(?:mon|tues?|wed(?:nes)?|thu(?:rs?)?|fri|sat(?:ur)?|sun)(?:day)?\b`)

	// plainTextDate splits plain-text newsletters into blocks
	plainTextDate = regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}`)

	feePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\d+(?:\.\d{2})?`),
		regexp.MustCompile(`€\d+(?:\.\d{2})?`),
		regexp.MustCompile(`£\d+(?:\.\d{2})?`),
		regexp.MustCompile(`(?i)\bfree\b`),
		regexp.MustCompile(`(?i)no charge`),
		regexp.MustCompile(`(?i)complimentary`),
	}

	urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
	htmlTag    = regexp.MustCompile(`<[a-zA-Z][a-zA-Z0-9]*(?:\s[^>]*)?/?>`)
)
