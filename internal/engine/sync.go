package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/go-laget/internal/config"
)

// Result is the tally of one Sync call, its sole observable outcome.
// Per-event detail is advisory logging, not part of the contract.
type Result struct {
	Added   int
	Updated int
	Errors  int
}

// Sync reconciles the canonical event list against one backend, applying the
// fewest mutations necessary: an event absent from the backend is added, a
// present one is updated only when a compared content field differs, and an
// unchanged one is left alone. Running Sync twice against unchanged state
// therefore yields a zero tally on the second run, and no duplicate events
// are ever created for a uid.
//
// Events are processed independently and strictly sequentially; failures are
// local, counted, and never abort the run. Backends are fully independent:
// the caller invokes Sync once per destination with the same list.
func Sync(ctx context.Context, events []Event, backend CalendarBackend) Result {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyBackend, backend.Name(),
	)
	log.Info(config.MsgSyncStarted, config.LogKeyCount, len(events))

	var res Result
	for _, event := range events {
		syncOne(ctx, log, event, backend, &res)
	}

	log.Info(config.MsgSyncFinished,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyAdded, res.Added),
			slog.Int(config.LogKeyUpdated, res.Updated),
			slog.Int(config.LogKeyErrors, res.Errors),
		),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return res
}

// syncOne applies the per-event reconciliation step and folds the outcome
// into the tally.
func syncOne(ctx context.Context, log *slog.Logger, event Event, backend CalendarBackend, res *Result) {
	if event.UID == "" {
		// Without identity the backend cannot be addressed.
		log.Warn(config.MsgEventFailed,
			config.LogKeyTitle, event.Title,
			config.LogKeyReason, config.ErrEmptyUID,
		)
		res.Errors++
		return
	}

	existing, err := backend.GetByUID(ctx, event.UID)
	if err != nil {
		log.Warn(config.MsgEventFailed,
			config.LogKeyUID, event.UID,
			config.LogKeyError, err,
		)
		res.Errors++
		return
	}

	if existing == nil {
		if err := backend.Add(ctx, event); err != nil {
			log.Warn(config.MsgEventFailed,
				config.LogKeyUID, event.UID,
				config.LogKeyError, err,
			)
			res.Errors++
			return
		}
		log.Info(config.MsgEventAdded,
			config.LogKeyUID, event.UID,
			config.LogKeyTitle, event.Title,
		)
		res.Added++
		return
	}

	if event.ContentEquals(*existing) {
		log.Debug(config.MsgEventUnchanged, config.LogKeyUID, event.UID)
		return
	}

	if err := backend.Update(ctx, event.UID, event); err != nil {
		log.Warn(config.MsgEventFailed,
			config.LogKeyUID, event.UID,
			config.LogKeyError, err,
		)
		res.Errors++
		return
	}
	log.Info(config.MsgEventUpdated,
		config.LogKeyUID, event.UID,
		config.LogKeyTitle, event.Title,
	)
	res.Updated++
}
