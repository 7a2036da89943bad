package validate

import (
	"regexp"
	"strings"
)

// nonEventTitles are navigation and marketing labels scraped in place of a
// real title. Matched against the lowercased title with trailing
// punctuation removed.
var nonEventTitles = toSet(
	"read more", "learn more", "more", "more info", "more information",
	"click here", "details", "view details",
	"register", "register now", "register here", "sign up", "book now", "buy tickets", "tickets",
	"home", "menu", "search", "next", "previous", "load more", "show more", "back to top",
	"events", "upcoming events", "past events", "all events",
	"event calendar", "events calendar", "calendar", "archive", "events archive", "news",
	"contact us", "about us", "donate", "log in", "login",
)

func toSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// nonEventPatterns catch boilerplate that varies in detail
var nonEventPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^subscribe\b`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^.$`),
	regexp.MustCompile(`^page \d+( of \d+)?$`),
	// "March 2026" style archive headings
	regexp.MustCompile(`^(january|february|march|april|may|june|july|august|september|october|november|december) \d{4}$`),
	// "Online | Free" tag strips with no title
	regexp.MustCompile(`^(online|in-person|in person|hybrid|free|members only|[$€£]\d+(\.\d{2})?)( ?\| ?(online|in-person|in person|hybrid|free|members only|[$€£]\d+(\.\d{2})?))+$`),
	regexp.MustCompile(`^(events?|news|posts?|blog) (archive|listing|list)s?$`),
	regexp.MustCompile(`^(copyright|©)`),
}

// nonEventPrefixes disqualify a title by its leading words
var nonEventPrefixes = []string{
	"see ",
	"view ",
	"browse ",
	"all ",
	"please ",
	"note:",
	"click ",
	"read ",
	"back to ",
	"return to ",
	"share ",
	"follow us",
}

// Titles longer than bodyTextThreshold with at least bodyTextSentences
// sentence breaks are scraped paragraphs, not headings. Length alone does
// not reject, so long single-sentence titles still pass.
const (
	bodyTextThreshold = 200
	bodyTextSentences = 2
)

// nonEventReason returns why title is not an event title, or ""
func nonEventReason(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))
	trimmed := strings.TrimRight(lowered, " .:!»›>")

	if nonEventTitles[trimmed] {
		return "title is navigation text: " + title
	}
	for _, re := range nonEventPatterns {
		if re.MatchString(trimmed) {
			return "title is boilerplate: " + title
		}
	}
	for _, prefix := range nonEventPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return "title starts with " + strings.TrimSpace(prefix)
		}
	}
	if runeCount(title) > bodyTextThreshold && strings.Count(title, ". ") >= bodyTextSentences {
		return "title looks like body text"
	}
	return ""
}
