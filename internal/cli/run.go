package cli

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/logger"
	"github.com/pfrederiksen/event-harvest/internal/source"
)

// ErrAllSourcesFailed is returned by run when no source could be read
var ErrAllSourcesFailed = eris.New("every source failed")

type runOptions struct {
	dryRun  bool
	sources []string
	format  string
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest every enabled source and update the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvest(cmd, global, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Harvest and report without saving anything")
	cmd.Flags().StringSliceVar(&opts.sources, "source", nil, "Only run these source ids (repeatable)")
	cmd.Flags().StringVar(&opts.format, "format", string(FormatText), "Output format: text or json")

	return cmd
}

// selectSources keeps the sources named in ids, in registry order
func selectSources(sources []source.Descriptor, ids []string) ([]source.Descriptor, error) {
	if len(ids) == 0 {
		return sources, nil
	}

	known := make(map[string]bool, len(sources))
	for _, s := range sources {
		known[s.ID] = true
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if !known[id] {
			return nil, eris.Errorf("unknown source %q", id)
		}
		want[id] = true
	}

	selected := make([]source.Descriptor, 0, len(ids))
	for _, s := range sources {
		if want[s.ID] {
			selected = append(selected, s)
		}
	}
	return selected, nil
}

func runHarvest(cmd *cobra.Command, global *globalOptions, opts *runOptions) error {
	format, err := parseFormat(opts.format, FormatText, FormatJSON)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, global)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	sources, err := a.store.LoadSources(ctx)
	if err != nil {
		return err
	}
	if sources, err = selectSources(sources, opts.sources); err != nil {
		return err
	}
	if len(sources) == 0 {
		logger.Warn("No sources configured", logger.Fields{"data_dir": a.cfg.DataDir})
	}

	client := a.fetchClient()
	defer client.Close() //nolint:errcheck

	p := a.pipeline(client)
	out := p.Run(ctx, sources)

	existing, err := a.store.LoadEvents(ctx)
	if err != nil {
		return err
	}
	reconciled := p.Reconcile(existing, out.Events())
	diff := event.Diff(existing, reconciled, a.now().UTC())

	report := &RunReport{Summary: out.Summary, Results: out.Results, DryRun: opts.dryRun}
	if opts.dryRun {
		batch := p.Reconcile(nil, out.Events())
		report.Summary.NewEvents = len(batch)
		report.NewEvents = pointers(batch)
		report.CatalogSize = len(existing)
	} else {
		report.Summary.NewEvents = len(diff.New)
		report.NewEvents = diff.New
		report.Updated = len(diff.Updated)
		if report.CatalogSize, report.Removed, err = persist(ctx, a, reconciled, out.Succeeded()); err != nil {
			return err
		}
		a.exportMetrics(report.CatalogSize)
	}

	if err := WriteRunReport(cmd.OutOrStdout(), report, format); err != nil {
		return eris.Wrap(err, "write output")
	}

	if out.Summary.AllFailed() {
		return ErrAllSourcesFailed
	}
	return nil
}

// persist saves the reconciled catalog, stamps the sources that succeeded
// and drops past events. It returns the final catalog size and how many
// past events were removed.
func persist(ctx context.Context, a *app, catalog []event.Event, succeeded []string) (int, int, error) {
	if err := a.store.SaveEvents(ctx, catalog); err != nil {
		return 0, 0, err
	}
	if err := a.store.UpdateSourceLastScraped(ctx, succeeded, a.now()); err != nil {
		return 0, 0, err
	}
	removed, err := a.store.RemovePastEvents(ctx, a.cfg.Pipeline.KeepPastDays)
	if err != nil {
		return 0, 0, err
	}
	return len(catalog) - removed, removed, nil
}

func pointers(events []event.Event) []*event.Event {
	out := make([]*event.Event, len(events))
	for i := range events {
		out[i] = &events[i]
	}
	return out
}

type cleanOptions struct {
	dryRun bool
	format string
}

func newCleanCmd(global *globalOptions) *cobra.Command {
	opts := &cleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Re-validate, deduplicate and prune the stored catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd, global, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would change without saving")
	cmd.Flags().StringVar(&opts.format, "format", string(FormatText), "Output format: text or json")

	return cmd
}

func runClean(cmd *cobra.Command, global *globalOptions, opts *cleanOptions) error {
	format, err := parseFormat(opts.format, FormatText, FormatJSON)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, global)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	events, err := a.store.LoadEvents(ctx)
	if err != nil {
		return err
	}

	p := a.pipeline(nil)
	kept, invalid := p.Clean(events)

	now := a.now()
	current := make([]event.Event, 0, len(kept))
	for _, e := range kept {
		if !e.IsPast(now, a.cfg.Pipeline.KeepPastDays) {
			current = append(current, e)
		}
	}

	report := &CleanReport{
		Before:     len(events),
		Invalid:    invalid,
		Duplicates: len(events) - invalid - len(kept),
		Past:       len(kept) - len(current),
		After:      len(current),
		DryRun:     opts.dryRun,
	}

	if !opts.dryRun {
		if err := a.store.SaveEvents(ctx, current); err != nil {
			return err
		}
		a.exportMetrics(len(current))
	}
	logger.Info("Catalog cleaned", logger.Fields{
		"before":     report.Before,
		"invalid":    report.Invalid,
		"duplicates": report.Duplicates,
		"past":       report.Past,
		"after":      report.After,
		"dry_run":    report.DryRun,
	})

	return eris.Wrap(WriteCleanReport(cmd.OutOrStdout(), report, format), "write output")
}
