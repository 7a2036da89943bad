package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/logger"
	"github.com/pfrederiksen/event-harvest/internal/source"
)

// SourceError is a failed source in a run summary
type SourceError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Summary counts what a run did
type Summary struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	TotalSources int           `json:"total_sources"`
	Successful   int           `json:"successful"`
	Failed       int           `json:"failed"`
	Candidates   int           `json:"candidates"`
	Accepted     int           `json:"accepted"`
	Rejected     int           `json:"rejected"`
	NewEvents    int           `json:"new_events"`
	Errors       []SourceError `json:"errors"`
}

// AllFailed reports whether there were sources and none succeeded
func (s *Summary) AllFailed() bool {
	return s.TotalSources > 0 && s.Failed == s.TotalSources
}

// Outcome is the result of a run
type Outcome struct {
	Summary Summary
	// Results are in source order.
	Results []Result
}

// Events returns every accepted event in source order
func (o *Outcome) Events() []event.Event {
	out := make([]event.Event, 0)
	for _, r := range o.Results {
		out = append(out, r.Events...)
	}
	return out
}

// Succeeded returns the ids of sources that did not fail
func (o *Outcome) Succeeded() []string {
	ids := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		if !r.Failed {
			ids = append(ids, r.Source.ID)
		}
	}
	return ids
}

// Run processes the enabled sources on a bounded worker pool. A source that
// fails never stops the others.
func (p *Pipeline) Run(ctx context.Context, sources []source.Descriptor) *Outcome {
	sources = source.Enabled(sources)
	out := &Outcome{
		Summary: Summary{
			RunID:        uuid.New().String(),
			StartedAt:    p.opts.Now().UTC(),
			TotalSources: len(sources),
			Errors:       make([]SourceError, 0),
		},
		Results: make([]Result, len(sources)),
	}

	logger.Info("Starting run", logger.Fields{
		"run_id":  out.Summary.RunID,
		"sources": len(sources),
		"workers": p.opts.Workers,
	})

	g := new(errgroup.Group)
	g.SetLimit(p.opts.Workers)
	for i, d := range sources {
		i, d := i, d
		g.Go(func() error {
			out.Results[i] = p.RunSource(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	s := &out.Summary
	for _, r := range out.Results {
		s.Candidates += r.Candidates
		s.Accepted += len(r.Events)
		s.Rejected += r.Rejected
		if r.Failed {
			s.Failed++
			s.Errors = append(s.Errors, SourceError{
				Source: r.Source.Name,
				Error:  strings.Join(r.Reasons, "; "),
			})
			continue
		}
		s.Successful++
	}
	s.FinishedAt = p.opts.Now().UTC()

	logger.Info("Run finished", logger.Fields{
		"run_id":     s.RunID,
		"successful": s.Successful,
		"failed":     s.Failed,
		"accepted":   s.Accepted,
		"rejected":   s.Rejected,
	})
	return out
}
