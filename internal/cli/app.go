package cli

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/config"
	"github.com/pfrederiksen/event-harvest/internal/dedup"
	"github.com/pfrederiksen/event-harvest/internal/fetch"
	"github.com/pfrederiksen/event-harvest/internal/logger"
	"github.com/pfrederiksen/event-harvest/internal/mail"
	"github.com/pfrederiksen/event-harvest/internal/metrics"
	"github.com/pfrederiksen/event-harvest/internal/pipeline"
	"github.com/pfrederiksen/event-harvest/internal/source"
	"github.com/pfrederiksen/event-harvest/internal/storage"
	"github.com/pfrederiksen/event-harvest/internal/validate"
)

// app holds what a command needs, built from configuration
type app struct {
	cfg      *config.Config
	store    storage.Store
	registry *source.Registry
	metrics  *metrics.Recorder
	now      func() time.Time
}

func newApp(ctx context.Context, opts *globalOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return nil, err
	}

	registry := source.NewRegistry()
	if cfg.Overrides.Path != "" {
		if err := registry.LoadFile(cfg.Overrides.Path); err != nil {
			return nil, err
		}
		logger.Debug("Loaded overrides", logger.Fields{"path": cfg.Overrides.Path, "handlers": len(registry.IDs())})
	}

	store, err := storage.Open(ctx, cfg.Store.Driver, cfg.DataDir, cfg.StoreDSN())
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	return &app{
		cfg:      cfg,
		store:    store,
		registry: registry,
		metrics:  metrics.New(),
		now:      time.Now,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) fetchClient() *fetch.Client {
	return fetch.New(fetch.Options{
		UserAgent:      a.cfg.Fetch.UserAgent,
		Timeout:        a.cfg.Fetch.Timeout(),
		MaxAttempts:    a.cfg.Fetch.MaxAttempts,
		CallsPerMinute: a.cfg.Fetch.CallsPerMinute,
		InitialBackoff: a.cfg.Fetch.InitialBackoff(),
		OnResult:       a.metrics.Fetch,
	})
}

func (a *app) pipeline(fetcher fetch.Fetcher) *pipeline.Pipeline {
	d := dedup.New()
	d.Threshold = a.cfg.Dedup.Threshold
	d.ToleranceDays = a.cfg.Dedup.DateToleranceDays
	d.Now = a.now

	return pipeline.New(pipeline.Options{
		Fetcher:   fetcher,
		Transport: mail.NewDirTransport(a.cfg.MailDir()),
		Registry:  a.registry,
		Validator: &validate.Validator{
			Now:           a.now,
			MaxPastDays:   a.cfg.Validation.MaxPastDays,
			MaxFutureDays: a.cfg.Validation.MaxFutureDays,
		},
		Dedup:           d,
		Metrics:         a.metrics,
		Workers:         a.cfg.Pipeline.Workers,
		MailDaysBack:    a.cfg.Mail.DaysBack,
		MailMaxMessages: a.cfg.Mail.MaxMessages,
		Now:             a.now,
	})
}

// exportMetrics writes the textfile when one is configured
func (a *app) exportMetrics(catalogSize int) {
	a.metrics.Finished(catalogSize, a.now())
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		logger.Warn("Writing metrics failed", logger.Fields{"path": a.cfg.Metrics.Textfile, "error": err.Error()})
	}
}
