// Package mail supplies newsletter bodies to the pipeline. A Transport
// returns decoded messages; DirTransport reads RFC 5322 files from disk.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultDaysBack    = 30
	DefaultMaxMessages = 10
)

// Message is a decoded newsletter
type Message struct {
	ID      string
	From    string
	Subject string
	Date    time.Time
	// Body is the HTML part when present, otherwise the plain text part.
	Body string
}

// Address returns the bare address of the sender
func (m Message) Address() string {
	return senderAddress(m.From)
}

// Query selects messages
type Query struct {
	// Sender matches a substring of the From header, case-insensitively.
	Sender string
	// SubjectPattern is a case-insensitive regular expression.
	SubjectPattern string
	Since          time.Time
	// Limit caps the number of messages, newest first. Zero means
	// DefaultMaxMessages.
	Limit int
}

// String renders q the way a mailbox search would express it
func (q Query) String() string {
	var parts []string
	if !q.Since.IsZero() {
		parts = append(parts, "after:"+q.Since.Format("2006/01/02"))
	}
	if q.Sender != "" {
		parts = append(parts, "from:"+q.Sender)
	}
	if q.SubjectPattern != "" {
		parts = append(parts, fmt.Sprintf("subject:(%s)", q.SubjectPattern))
	}
	return strings.Join(parts, " ")
}

// NewQuery builds a query looking daysBack days before now
func NewQuery(sender, subjectPattern string, now time.Time, daysBack, limit int) Query {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	if limit <= 0 {
		limit = DefaultMaxMessages
	}
	return Query{
		Sender:         sender,
		SubjectPattern: subjectPattern,
		Since:          now.AddDate(0, 0, -daysBack),
		Limit:          limit,
	}
}

// Transport yields decoded messages matching a query
type Transport interface {
	Messages(ctx context.Context, q Query) ([]Message, error)
}
