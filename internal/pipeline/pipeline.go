package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/dedup"
	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/extract"
	"github.com/pfrederiksen/event-harvest/internal/fetch"
	"github.com/pfrederiksen/event-harvest/internal/logger"
	"github.com/pfrederiksen/event-harvest/internal/mail"
	"github.com/pfrederiksen/event-harvest/internal/metrics"
	"github.com/pfrederiksen/event-harvest/internal/source"
	"github.com/pfrederiksen/event-harvest/internal/validate"
)

// Options wires the pipeline's collaborators. Fetcher is required for
// website sources and Transport for newsletter sources; the rest default.
type Options struct {
	Fetcher   fetch.Fetcher
	Transport mail.Transport
	Registry  *source.Registry
	Validator *validate.Validator
	Dedup     *dedup.Deduplicator
	Metrics   *metrics.Recorder
	// Workers bounds how many sources run at once.
	Workers         int
	MailDaysBack    int
	MailMaxMessages int
	Now             func() time.Time
}

// Pipeline runs sources through fetch, extract and validate
type Pipeline struct {
	opts Options
}

// New returns a Pipeline, filling unset options with defaults
func New(opts Options) *Pipeline {
	if opts.Registry == nil {
		opts.Registry = source.NewRegistry()
	}
	if opts.Validator == nil {
		opts.Validator = validate.New()
	}
	if opts.Dedup == nil {
		opts.Dedup = dedup.New()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts}
}

// Result is the outcome of one source
type Result struct {
	Source source.Descriptor
	// Events are the accepted events in document order.
	Events []event.Event
	// Reasons explain failures and rejections.
	Reasons    []string
	Candidates int
	Rejected   int
	// Failed is set when the source's content was unavailable.
	Failed   bool
	Duration time.Duration
}

func (r *Result) fail(format string, args ...interface{}) Result {
	r.Failed = true
	r.Reasons = append(r.Reasons, fmt.Sprintf(format, args...))
	return *r
}

// RunSource fetches, extracts and validates one source
func (p *Pipeline) RunSource(ctx context.Context, d source.Descriptor) Result {
	started := time.Now()
	res := p.runSource(ctx, d)
	res.Duration = time.Since(started)

	status := metrics.SourceSuccess
	if res.Failed {
		status = metrics.SourceFailed
		logger.Warn("Source failed", logger.Fields{
			"source":  d.ID,
			"reasons": res.Reasons,
		})
	} else {
		logger.Info("Source processed", logger.Fields{
			"source":     d.ID,
			"candidates": res.Candidates,
			"accepted":   len(res.Events),
			"rejected":   res.Rejected,
			"duration":   res.Duration,
		})
	}
	p.opts.Metrics.Source(status, res.Duration)
	return res
}

func (p *Pipeline) runSource(ctx context.Context, d source.Descriptor) Result {
	res := Result{Source: d, Events: make([]event.Event, 0)}

	if err := d.Validate(); err != nil {
		return res.fail("invalid source: %v", err)
	}

	var override *source.Override
	if handler := d.Handler(); handler != "" {
		o, ok := p.opts.Registry.Lookup(handler)
		if !ok {
			return res.fail("unknown handler %q", handler)
		}
		override = &o
	}

	var (
		candidates []event.Candidate
		err        error
	)
	switch d.Kind {
	case event.KindWebsite:
		candidates, err = p.website(ctx, d, override)
	case event.KindNewsletter:
		candidates, err = p.newsletter(ctx, d, override)
	}
	if err != nil {
		return res.fail("%v", err)
	}

	res.Candidates = len(candidates)
	for _, c := range candidates {
		if override != nil {
			override.Apply(&c)
		}
		e, reasons := p.opts.Validator.Accept(c)
		if e == nil {
			score, _ := validate.Score(&c)
			logger.Debug("Candidate rejected", logger.Fields{
				"source":  d.ID,
				"title":   c.Title,
				"reasons": reasons,
				"score":   score,
			})
			res.Rejected++
			res.Reasons = append(res.Reasons, fmt.Sprintf("rejected %q: %v", c.Title, reasons))
			p.opts.Metrics.Candidate(metrics.CandidateRejected)
			continue
		}
		res.Events = append(res.Events, *e)
		p.opts.Metrics.Candidate(metrics.CandidateAccepted)
	}
	return res
}

// extractorOptions combines descriptor and override selectors. Descriptor
// values win; the descriptor's item selector is tried before the override's.
func extractorOptions(d source.Descriptor, override *source.Override) extract.Options {
	sel := d.Config.Selectors
	var items []string
	if sel.EventItem != "" {
		items = append(items, sel.EventItem)
	}
	if override != nil {
		sel = sel.Merge(override.Selectors)
		items = append(items, override.ItemSelectors...)
	}

	return extract.Options{
		Hints: extract.Hints{
			Title:       sel.Title,
			Date:        sel.Date,
			Description: sel.Description,
			Location:    sel.Location,
			Link:        sel.Link,
		},
		List:  sel.EventList,
		Items: items,
	}
}

func (p *Pipeline) website(ctx context.Context, d source.Descriptor, override *source.Override) ([]event.Candidate, error) {
	url := d.Config.URL
	if url == "" && override != nil {
		url = override.URL
	}
	if url == "" {
		return nil, eris.New("no url configured")
	}
	if p.opts.Fetcher == nil {
		return nil, eris.New("no fetcher configured")
	}

	opts := extractorOptions(d, override)
	opts.BaseURL = url
	opts.LinkFallback = true
	opts.Source = event.Provenance{
		Kind:        event.KindWebsite,
		URL:         url,
		Name:        d.Name,
		RetrievedAt: p.opts.Now().UTC(),
	}
	ex, err := extract.New(opts)
	if err != nil {
		return nil, err
	}

	content, ok := p.opts.Fetcher.Fetch(ctx, url)
	if !ok {
		return nil, eris.Errorf("content unavailable: %s", url)
	}

	candidates, err := ex.Page(content)
	if err != nil {
		return nil, err
	}
	logger.Debug("Extracted candidates", logger.Fields{"source": d.ID, "url": url, "candidates": len(candidates)})
	return candidates, nil
}

func (p *Pipeline) newsletter(ctx context.Context, d source.Descriptor, override *source.Override) ([]event.Candidate, error) {
	if p.opts.Transport == nil {
		return nil, eris.New("no mail transport configured")
	}

	now := p.opts.Now()
	q := mail.NewQuery(d.Config.GmailSender, d.Config.GmailSubjectPattern, now, p.opts.MailDaysBack, p.opts.MailMaxMessages)
	messages, err := p.opts.Transport.Messages(ctx, q)
	if err != nil {
		return nil, err
	}
	logger.Debug("Fetched newsletters", logger.Fields{"source": d.ID, "query": q.String(), "messages": len(messages)})

	candidates := make([]event.Candidate, 0)
	for _, msg := range messages {
		address := msg.Address()
		if address == "" {
			address = d.Config.GmailSender
		}

		opts := extractorOptions(d, override)
		opts.Source = event.Provenance{
			Kind:        event.KindNewsletter,
			URL:         "mailto:" + address,
			Name:        d.Name,
			RetrievedAt: now.UTC(),
			Subject:     msg.Subject,
		}
		ex, err := extract.New(opts)
		if err != nil {
			return nil, err
		}

		found, err := ex.Newsletter(msg.Body)
		if err != nil {
			logger.Warn("Skipping undecodable newsletter", logger.Fields{"source": d.ID, "message": msg.ID, "error": err.Error()})
			continue
		}
		candidates = append(candidates, found...)
	}
	return candidates, nil
}
