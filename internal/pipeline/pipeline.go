// Package pipeline wires the scraper, normalizer, exporter and sync engine
// into one run: raw registrations in, calendar file plus per-backend tallies
// out. It owns no state between runs; everything persistent lives in the
// backends, addressed by uid.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/tartampluch/go-laget/internal/backend/caldav"
	"github.com/tartampluch/go-laget/internal/backend/localstore"
	"github.com/tartampluch/go-laget/internal/config"
	"github.com/tartampluch/go-laget/internal/engine"
	"github.com/tartampluch/go-laget/internal/ics"
	"github.com/tartampluch/go-laget/internal/laget"
	"github.com/tartampluch/go-laget/internal/metrics"
	"github.com/tartampluch/go-laget/internal/server"
)

// Scraper is the upstream contract: an ordered list of raw registration
// records. Satisfied by laget.Client, mocked in tests.
type Scraper interface {
	FetchAll(ctx context.Context) ([]engine.RawRegistration, error)
}

// Pipeline executes the scrape → normalize → export → sync sequence.
// NewScraper and NewBackends are factories: each run gets a fresh portal
// session and freshly authenticated backends, since daemon runs may be
// separated by days.
type Pipeline struct {
	Settings *config.Settings
	Clock    engine.Clock

	// Feed, when set, receives the encoded calendar after each run.
	Feed *server.FeedServer

	NewScraper  func() Scraper
	NewBackends func() []engine.CalendarBackend

	normalizer *engine.Normalizer
}

// New builds a pipeline from settings and resolved portal credentials.
func New(settings *config.Settings, email, password string, clock engine.Clock) (*Pipeline, error) {
	resolver, err := engine.NewResolver(clock)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Settings:   settings,
		Clock:      clock,
		normalizer: &engine.Normalizer{Resolver: resolver},
	}
	p.NewScraper = func() Scraper {
		return laget.NewClient(email, password)
	}
	p.NewBackends = func() []engine.CalendarBackend {
		var backends []engine.CalendarBackend
		if settings.CalDAV != nil {
			backends = append(backends, caldav.New(settings.CalDAV, clock, resolver.Location))
		}
		if settings.LocalStore != "" {
			backends = append(backends, localstore.New(settings.LocalStore, resolver.Location))
		}
		return backends
	}
	return p, nil
}

// Run executes one full pass and returns the per-backend tallies. Backends
// are fully independent: an authentication failure skips that backend for
// the run and never affects the others.
func (p *Pipeline) Run(ctx context.Context) (map[string]engine.Result, error) {
	raws, err := p.NewScraper().FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, errors.New(config.ErrNoRegistrations)
	}
	metrics.RegistrationsScraped.Add(float64(len(raws)))

	if !p.Settings.IncludePractice {
		raws, _ = laget.FilterPractice(raws)
	}

	events, _ := p.normalizer.NormalizeAll(raws)
	if len(events) == 0 {
		// Filtering or skips emptied the run. Never replace a populated
		// calendar file or feed with an empty document.
		return nil, errors.New(config.ErrNoEvents)
	}

	data, err := ics.Encode(events, p.Clock.Now())
	if err != nil {
		return nil, err
	}
	if err := ics.WriteFile(p.Settings.Output, data); err != nil {
		return nil, err
	}
	if p.Feed != nil {
		p.Feed.Update(data)
	}

	results := make(map[string]engine.Result)
	for _, backend := range p.NewBackends() {
		if err := backend.Authenticate(ctx); err != nil {
			slog.Warn(config.MsgBackendSkipped,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyBackend, backend.Name(),
				config.LogKeyError, err,
			)
			continue
		}
		res := engine.Sync(ctx, events, backend)
		metrics.ObserveSync(backend.Name(), res.Added, res.Updated, res.Errors)
		results[backend.Name()] = res

		if closer, ok := backend.(io.Closer); ok {
			_ = closer.Close()
		}
	}
	return results, nil
}
