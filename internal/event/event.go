package event

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Type is the category of an event
type Type string

const (
	TypeConference Type = "conference"
	TypeWorkshop   Type = "workshop"
	TypeLecture    Type = "lecture"
	TypeSeminar    Type = "seminar"
	TypeWebinar    Type = "webinar"
	TypeCourse     Type = "course"
	TypeOther      Type = "other"
)

// Types lists every event type in keyword-scan order, TypeOther last.
var Types = []Type{TypeConference, TypeWorkshop, TypeLecture, TypeSeminar, TypeWebinar, TypeCourse, TypeOther}

// Valid reports whether t is a known event type
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Format is how an event is attended
type Format string

const (
	FormatOnline   Format = "online"
	FormatInPerson Format = "in-person"
	FormatHybrid   Format = "hybrid"
)

// Valid reports whether f is a known format
func (f Format) Valid() bool {
	switch f {
	case FormatOnline, FormatInPerson, FormatHybrid:
		return true
	}
	return false
}

// SourceKind identifies where a record was obtained
type SourceKind string

const (
	KindWebsite    SourceKind = "website"
	KindNewsletter SourceKind = "newsletter"
)

// UnknownOrganizer is the placeholder organizer name
const UnknownOrganizer = "Unknown"

// Location describes where an event takes place
type Location struct {
	Venue     string `json:"venue,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	OnlineURL string `json:"online_url,omitempty"`
}

// Meaningful reports whether any of venue, city or online URL is set
func (l Location) Meaningful() bool {
	return l.Venue != "" || l.City != "" || l.OnlineURL != ""
}

// Organizer describes who runs an event
type Organizer struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Email string `json:"email,omitempty"`
}

// Known reports whether the organizer has a real name
func (o Organizer) Known() bool {
	return o.Name != "" && o.Name != UnknownOrganizer
}

// Registration holds sign-up details
type Registration struct {
	URL      string `json:"url,omitempty"`
	Deadline string `json:"deadline,omitempty"`
	Fee      string `json:"fee,omitempty"`
}

// Provenance records where and when a record was obtained.
// It is persisted under the "source" key.
type Provenance struct {
	Kind        SourceKind `json:"type"`
	URL         string     `json:"url"`
	Name        string     `json:"name"`
	RetrievedAt time.Time  `json:"scraped_at"`
	Subject     string     `json:"email_subject,omitempty"`
}

// Candidate is a provisional extraction result. Dates are ISO-8601 strings
// exactly as produced by the extractor.
type Candidate struct {
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	EventType    Type         `json:"event_type"`
	Format       Format       `json:"format"`
	StartDate    string       `json:"start_date,omitempty"`
	EndDate      string       `json:"end_date,omitempty"`
	Timezone     string       `json:"timezone,omitempty"`
	Location     Location     `json:"location"`
	Organizer    Organizer    `json:"organizer"`
	Registration Registration `json:"registration"`
	Source       Provenance   `json:"source"`
	Tags         []string     `json:"tags"`
}

// NewCandidate returns a candidate with the default type, format and organizer
func NewCandidate(src Provenance) Candidate {
	return Candidate{
		EventType: TypeOther,
		Format:    FormatOnline,
		Organizer: Organizer{Name: UnknownOrganizer},
		Source:    src,
		Tags:      []string{},
	}
}

// Start returns the parsed start date
func (c *Candidate) Start() (time.Time, bool) {
	return ParseISO(c.StartDate)
}

// End returns the parsed end date
func (c *Candidate) End() (time.Time, bool) {
	return ParseISO(c.EndDate)
}

// Event is a candidate that passed validation
type Event struct {
	ID string `json:"id"`
	Candidate
	CompletenessScore int       `json:"completeness_score"`
	MissingFields     []string  `json:"missing_fields"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IDLength is the number of hex characters kept from the digest
const IDLength = 16

// GenerateID creates a deterministic ID from the origin URL, title and the
// raw start date text.
func GenerateID(originURL, title, startDate string) string {
	key := originURL + ":" + title
	if startDate != "" {
		key += ":" + startDate
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:IDLength]
}

// IsPast reports whether the event finished more than keepDays before now.
// Events without a parseable date are never past.
func (e *Event) IsPast(now time.Time, keepDays int) bool {
	when, ok := e.End()
	if !ok {
		when, ok = e.Start()
	}
	if !ok {
		return false
	}
	return when.Before(now.AddDate(0, 0, -keepDays))
}
