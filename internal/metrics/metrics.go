// Package metrics exposes Prometheus counters for the scrape/sync pipeline.
// The engine itself stays metrics-free; the daemon loop feeds these from the
// structured outcomes (tallies, skip counts) the core already reports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncsTotal counts completed sync passes per backend.
	SyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laget_syncs_total",
		Help: "Completed synchronization passes by backend.",
	}, []string{"backend"})

	// EventsAdded counts events created on a backend.
	EventsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laget_events_added_total",
		Help: "Events added to a backend.",
	}, []string{"backend"})

	// EventsUpdated counts events overwritten on a backend.
	EventsUpdated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laget_events_updated_total",
		Help: "Events updated on a backend.",
	}, []string{"backend"})

	// EventErrors counts per-event failures (identity or backend operation).
	EventErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laget_events_errors_total",
		Help: "Per-event sync failures by backend.",
	}, []string{"backend"})

	// RegistrationsScraped counts raw registrations harvested from the portal.
	RegistrationsScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laget_registrations_scraped_total",
		Help: "Raw registrations fetched from the portal.",
	})
)

// ObserveSync records one sync tally for a backend.
func ObserveSync(backend string, added, updated, errs int) {
	SyncsTotal.WithLabelValues(backend).Inc()
	EventsAdded.WithLabelValues(backend).Add(float64(added))
	EventsUpdated.WithLabelValues(backend).Add(float64(updated))
	EventErrors.WithLabelValues(backend).Add(float64(errs))
}
