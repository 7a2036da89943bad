package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "br": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true, "section": true, "article": true,
	"header": true, "footer": true, "blockquote": true, "dd": true, "dt": true,
	"td": true, "th": true,
}

// blockText returns the visible text of the selection with a newline after
// every block element and single spaces inside lines. Empty lines are dropped.
func blockText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			if blockElements[n.Data] {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
	}
	for _, n := range s.Nodes {
		walk(n)
		b.WriteByte('\n')
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapse(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// visibleText returns the visible text of the selection on one line
func visibleText(s *goquery.Selection) string {
	return collapse(blockText(s))
}

// collapse trims s and squeezes runs of whitespace to a single space
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}

// runeLen counts characters, not bytes
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// bareURLs finds http(s) links written as plain text, with the text
// preceding each one
func bareURLs(text string) []textURL {
	locs := urlPattern.FindAllStringIndex(text, -1)
	out := make([]textURL, 0, len(locs))
	for _, loc := range locs {
		u := strings.TrimRight(text[loc[0]:loc[1]], ".,;:!?")
		from := loc[0] - urlContextBytes
		if from < 0 {
			from = 0
		}
		out = append(out, textURL{url: u, before: text[from:loc[0]]})
	}
	return out
}

type textURL struct {
	url    string
	before string
}

// urlContextBytes is how much text before a bare URL is searched for a label
const urlContextBytes = 40

// looksLikeHTML reports whether content contains markup
func looksLikeHTML(content string) bool {
	return htmlTag.MatchString(content)
}
