package engine

import "time"

// RawRegistration is one scraped invitation record as extracted from the
// portal's invitation modal. It is ephemeral: once normalized into an Event
// it is discarded. All fields are raw display strings, trimmed by the scraper.
type RawRegistration struct {
	// PK and ChildID are the portal's external identifiers; together they
	// form the stable identity of the registration.
	PK      string
	ChildID string
	Site    string

	Title     string
	Team      string
	ChildName string

	// Date, Time and Samling are the unparsed schedule fragments
	// (e.g. "16 november", "10:00-11:00", "16 nov, 09:45").
	Date    string
	Time    string
	Samling string

	Location    string
	Address     string
	Description string
	MapURL      string

	// Attendees is the ordered roster of registered names, possibly empty.
	Attendees []string
}

// Event is the canonical, backend-agnostic representation of a registration.
// It is constructed once per normalization pass and never mutated; a new
// Event with the same UID replaces a previous one across runs.
type Event struct {
	// UID is the stable cross-run identity, derived from PK and ChildID.
	UID string

	Title string

	// Start and End are timezone-aware instants with Start strictly before End.
	Start time.Time
	End   time.Time

	// Location is "<venue>, <address>" when both parts are present.
	Location string

	// Description is the assembled multi-paragraph text (team, notes,
	// roster, map link), empty when no source section exists.
	Description string

	// Reminders holds offsets in seconds relative to Start (negative =
	// before). Fixed policy, excluded from sync comparison.
	Reminders []int
}

// ContentEquals reports whether the user-visible content fields match.
// UID and Reminders are derived/policy fields and deliberately excluded:
// including them would force spurious updates on every run whenever a
// backend normalizes them differently. Instants are compared with
// time.Time.Equal so backend-side location changes do not register as drift.
func (e Event) ContentEquals(other Event) bool {
	return e.Title == other.Title &&
		e.Start.Equal(other.Start) &&
		e.End.Equal(other.End) &&
		e.Location == other.Location &&
		e.Description == other.Description
}
