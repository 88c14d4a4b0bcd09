package engine

import "context"

// CalendarBackend is the capability contract implemented by each destination
// calendar (CalDAV server, local event store). The sync engine depends only
// on this interface, never on concrete adapter types.
//
// Lookup scope: GetByUID must search at least config.SearchWindow on each
// side of "now", wide enough to contain any previously synced event.
type CalendarBackend interface {
	// Name identifies the backend in logs and tallies.
	Name() string

	// Authenticate establishes a usable session. It is called once before
	// any other operation; on error the backend is skipped for the run.
	// Adapters are responsible for their own internal timeouts.
	Authenticate(ctx context.Context) error

	// GetByUID returns the stored event with the given canonical identity,
	// or (nil, nil) when absent.
	GetByUID(ctx context.Context, uid string) (*Event, error)

	// Add creates a new backend-native event carrying the uid recoverably,
	// so a later GetByUID finds it.
	Add(ctx context.Context, event Event) error

	// Update overwrites the content fields of the event located by uid.
	// It must not change the uid.
	Update(ctx context.Context, uid string, event Event) error
}
