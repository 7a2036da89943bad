package cli

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/filter"
)

type listOptions struct {
	from     string
	to       string
	during   string
	types    []string
	formats  []string
	cities   []string
	query    string
	minScore int
	sort     string
	output   string
	limit    int
}

func newListCmd(global *globalOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog events",
		Long: `List catalog events, optionally filtered and sorted.

Dates accept ISO (2026-03-15) or written forms (March 15, 2026). --during
takes a range such as "Mar 1-15", "March 1 - April 15" or "March".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "Only events starting on or after this date")
	cmd.Flags().StringVar(&opts.to, "to", "", "Only events starting on or before this date")
	cmd.Flags().StringVar(&opts.during, "during", "", "Only events starting within this range")
	cmd.Flags().StringSliceVar(&opts.types, "type", nil, "Event types (conference, workshop, lecture, seminar, webinar, course, other)")
	cmd.Flags().StringSliceVar(&opts.formats, "format", nil, "Formats (online, in-person, hybrid)")
	cmd.Flags().StringSliceVar(&opts.cities, "city", nil, "City substrings")
	cmd.Flags().StringVar(&opts.query, "title", "", "Title substring")
	cmd.Flags().IntVar(&opts.minScore, "min-score", 0, "Minimum completeness score")
	cmd.Flags().StringVar(&opts.sort, "sort", string(SortByDate), "Sort by: date, title or score")
	cmd.Flags().StringVarP(&opts.output, "output", "o", string(FormatText), "Output format: text, json or ics")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Show at most this many events (0 for all)")

	return cmd
}

// buildFilter turns list flags into a Filter
func buildFilter(opts *listOptions, a *app) (*filter.Filter, error) {
	f := filter.NewFilter()

	if opts.during != "" {
		from, to, err := filter.ParseDateRange(opts.during, a.now())
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	}
	if opts.from != "" {
		from, err := filter.ParseDate(opts.from)
		if err != nil {
			return nil, err
		}
		f.DateFrom = &from
	}
	if opts.to != "" {
		to, err := filter.ParseDate(opts.to)
		if err != nil {
			return nil, err
		}
		to = filter.EndOfDay(to)
		f.DateTo = &to
	}

	for _, t := range opts.types {
		typ := event.Type(strings.ToLower(strings.TrimSpace(t)))
		if !typ.Valid() {
			return nil, eris.Errorf("unknown event type %q", t)
		}
		f.Types = append(f.Types, typ)
	}
	for _, v := range opts.formats {
		format := event.Format(strings.ToLower(strings.TrimSpace(v)))
		if !format.Valid() {
			return nil, eris.Errorf("unknown format %q", v)
		}
		f.Formats = append(f.Formats, format)
	}

	f.Cities = append(f.Cities, opts.cities...)
	f.Query = strings.TrimSpace(opts.query)
	f.MinScore = opts.minScore
	return f, nil
}

func runList(cmd *cobra.Command, global *globalOptions, opts *listOptions) error {
	format, err := parseFormat(opts.output, FormatText, FormatJSON, FormatICS)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(opts.sort)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, global)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	f, err := buildFilter(opts, a)
	if err != nil {
		return err
	}

	events, err := a.store.LoadEvents(ctx)
	if err != nil {
		return err
	}

	events = f.Apply(events)
	sortEvents(events, order)
	if opts.limit > 0 && len(events) > opts.limit {
		events = events[:opts.limit]
	}

	return eris.Wrap(WriteEvents(cmd.OutOrStdout(), events, format, a.now()), "write output")
}
