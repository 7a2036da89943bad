package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/calendar"
	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/pipeline"
	"github.com/pfrederiksen/event-harvest/internal/source"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// parseFormat accepts s when it names one of allowed
func parseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	names := make([]string, len(allowed))
	for i, a := range allowed {
		if format == a {
			return format, nil
		}
		names[i] = string(a)
	}
	return "", eris.Errorf("invalid format: %s (must be one of %s)", s, strings.Join(names, ", "))
}

// SourceReport is one source's line in a run report
type SourceReport struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Failed     bool          `json:"failed"`
	Candidates int           `json:"candidates"`
	Accepted   int           `json:"accepted"`
	Rejected   int           `json:"rejected"`
	Duration   time.Duration `json:"duration_ns"`
	Reasons    []string      `json:"reasons,omitempty"`
}

// RunReport contains the data to be output after a run
type RunReport struct {
	Summary     pipeline.Summary  `json:"summary"`
	Results     []pipeline.Result `json:"-"`
	Sources     []SourceReport    `json:"sources"`
	NewEvents   []*event.Event    `json:"new_events"`
	Updated     int               `json:"updated"`
	Removed     int               `json:"removed_past"`
	CatalogSize int               `json:"catalog_size"`
	DryRun      bool              `json:"dry_run"`
}

func (r *RunReport) sourceReports() []SourceReport {
	out := make([]SourceReport, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, SourceReport{
			ID:         res.Source.ID,
			Name:       res.Source.Name,
			Failed:     res.Failed,
			Candidates: res.Candidates,
			Accepted:   len(res.Events),
			Rejected:   res.Rejected,
			Duration:   res.Duration,
			Reasons:    res.Reasons,
		})
	}
	return out
}

// WriteRunReport writes a run report in the specified format
func WriteRunReport(w io.Writer, report *RunReport, format OutputFormat) error {
	report.Sources = report.sourceReports()
	if report.NewEvents == nil {
		report.NewEvents = make([]*event.Event, 0)
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeRunText(w, report)
	default:
		return eris.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func renderTable(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func writeRunText(w io.Writer, report *RunReport) error {
	s := report.Summary

	if len(report.Sources) > 0 {
		data := pterm.TableData{{"Source", "Status", "Candidates", "Accepted", "Rejected", "Time"}}
		for _, src := range report.Sources {
			status := "ok"
			if src.Failed {
				status = "failed"
			}
			data = append(data, []string{
				src.Name,
				status,
				strconv.Itoa(src.Candidates),
				strconv.Itoa(src.Accepted),
				strconv.Itoa(src.Rejected),
				src.Duration.Round(time.Millisecond).String(),
			})
		}
		if err := renderTable(w, data); err != nil {
			return err
		}
	}

	for _, e := range s.Errors {
		fmt.Fprintf(w, "FAILED %s: %s\n", e.Source, e.Error)
	}

	label := "new"
	if report.DryRun {
		label = "new (dry run, nothing saved)"
	}
	fmt.Fprintf(w, "\nSources: %d ok, %d failed of %d\n", s.Successful, s.Failed, s.TotalSources)
	fmt.Fprintf(w, "Candidates: %d extracted, %d accepted, %d rejected\n", s.Candidates, s.Accepted, s.Rejected)
	fmt.Fprintf(w, "Events: %d %s", s.NewEvents, label)
	if !report.DryRun {
		fmt.Fprintf(w, ", %d updated, %d past removed, %d in catalog", report.Updated, report.Removed, report.CatalogSize)
	}
	fmt.Fprintln(w)

	for _, evt := range report.NewEvents {
		fmt.Fprintf(w, "  NEW: %s  %s\n", displayDate(evt), evt.Title)
	}
	return nil
}

// CleanReport summarizes a clean
type CleanReport struct {
	Before     int  `json:"before"`
	Invalid    int  `json:"invalid"`
	Duplicates int  `json:"duplicates"`
	Past       int  `json:"past"`
	After      int  `json:"after"`
	DryRun     bool `json:"dry_run"`
}

// WriteCleanReport writes a clean report in the specified format
func WriteCleanReport(w io.Writer, report *CleanReport, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		suffix := ""
		if report.DryRun {
			suffix = " (dry run, nothing saved)"
		}
		_, err := fmt.Fprintf(w, "Catalog: %d -> %d events (%d invalid, %d duplicates, %d past)%s\n",
			report.Before, report.After, report.Invalid, report.Duplicates, report.Past, suffix)
		return err
	default:
		return eris.Errorf("unknown format: %s", format)
	}
}

// displayDate renders the start date for listings
func displayDate(evt *event.Event) string {
	start, ok := evt.Start()
	if !ok {
		return "TBA"
	}
	start = start.UTC()
	if start.Hour() == 0 && start.Minute() == 0 {
		return start.Format("2006-01-02")
	}
	return start.Format("2006-01-02 15:04")
}

func displayLocation(evt *event.Event) string {
	loc := evt.Location
	switch {
	case loc.City != "" && loc.Country != "":
		return loc.City + ", " + loc.Country
	case loc.City != "":
		return loc.City
	case loc.Venue != "":
		return loc.Venue
	case loc.OnlineURL != "":
		return "online"
	}
	return ""
}

// WriteEvents writes catalog events in the specified format
func WriteEvents(w io.Writer, events []event.Event, format OutputFormat, now time.Time) error {
	switch format {
	case FormatJSON:
		if events == nil {
			events = make([]event.Event, 0)
		}
		return writeJSON(w, events)
	case FormatICS:
		return calendar.Write(w, events, now)
	case FormatText:
		if len(events) == 0 {
			_, err := fmt.Fprintln(w, "No events found.")
			return err
		}
		data := pterm.TableData{{"Date", "Title", "Type", "Format", "Location", "Score"}}
		for i := range events {
			evt := &events[i]
			data = append(data, []string{
				displayDate(evt),
				truncateText(evt.Title, 60),
				string(evt.EventType),
				string(evt.Format),
				displayLocation(evt),
				strconv.Itoa(evt.CompletenessScore),
			})
		}
		if err := renderTable(w, data); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Total: %d events\n", len(events))
		return err
	default:
		return eris.Errorf("unknown format: %s", format)
	}
}

// WriteSources writes the source registry in the specified format
func WriteSources(w io.Writer, sources []source.Descriptor, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if sources == nil {
			sources = make([]source.Descriptor, 0)
		}
		return writeJSON(w, map[string]interface{}{"sources": sources})
	case FormatText:
		if len(sources) == 0 {
			_, err := fmt.Fprintln(w, "No sources configured.")
			return err
		}
		data := pterm.TableData{{"ID", "Name", "Type", "Enabled", "Handler", "Last scraped"}}
		for i := range sources {
			d := &sources[i]
			last := "never"
			if d.LastScraped != nil {
				last = d.LastScraped.UTC().Format("2006-01-02 15:04")
			}
			data = append(data, []string{
				d.ID,
				d.Name,
				string(d.Kind),
				strconv.FormatBool(d.IsEnabled()),
				d.Handler(),
				last,
			})
		}
		return renderTable(w, data)
	default:
		return eris.Errorf("unknown format: %s", format)
	}
}

// truncateText shortens s to at most n runes, marking the cut
func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
