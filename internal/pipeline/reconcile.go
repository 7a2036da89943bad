package pipeline

import (
	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/validate"
)

// Reconcile deduplicates the union of the stored catalog and a run's
// events. Stored events come first, so they keep their identity when an
// incoming event duplicates them. Merged records are rescored.
func (p *Pipeline) Reconcile(existing, incoming []event.Event) []event.Event {
	all := make([]event.Event, 0, len(existing)+len(incoming))
	all = append(all, existing...)
	all = append(all, incoming...)

	unique := p.opts.Dedup.Deduplicate(all)
	for i := range unique {
		validate.Rescore(&unique[i])
	}
	p.opts.Metrics.Merges(len(all) - len(unique))
	return unique
}

// Clean re-validates stored events against the current rules, dropping
// those that no longer pass and rescoring the rest, then deduplicates.
// It returns the kept events and the number removed by validation.
func (p *Pipeline) Clean(events []event.Event) ([]event.Event, int) {
	kept := make([]event.Event, 0, len(events))
	for _, e := range events {
		if ok, _ := p.opts.Validator.Validate(&e.Candidate); !ok {
			continue
		}
		validate.Rescore(&e)
		kept = append(kept, e)
	}
	removed := len(events) - len(kept)
	return p.Reconcile(nil, kept), removed
}
