package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tartampluch/go-laget/internal/config"
)

// Skip reasons surfaced by Normalize. They classify per-record skips and are
// never fatal to a batch.
var (
	ErrMissingSchedule     = errors.New(config.ErrMissingSchedule)
	ErrUnparseableSchedule = errors.New(config.ErrUnparseableSched)
)

// Normalizer converts raw scraped registrations into canonical events.
type Normalizer struct {
	Resolver *Resolver
}

// Normalize builds one canonical Event from a raw registration. A missing or
// unparseable schedule returns a skip error; everything else is best-effort
// string assembly on trimmed values.
func (n *Normalizer) Normalize(raw RawRegistration) (Event, error) {
	if strings.TrimSpace(raw.Date) == "" || strings.TrimSpace(raw.Time) == "" {
		return Event{}, ErrMissingSchedule
	}

	start, end, ok := n.Resolver.Resolve(raw.Date, raw.Time, raw.Samling)
	if !ok {
		return Event{}, ErrUnparseableSchedule
	}

	title := strings.TrimSpace(raw.Title)
	if child := strings.TrimSpace(raw.ChildName); child != "" {
		title = title + config.TitleJoin + child
	}

	return Event{
		UID:         DeriveUID(raw.PK, raw.ChildID),
		Title:       title,
		Start:       start,
		End:         end,
		Location:    joinLocation(raw.Location, raw.Address),
		Description: buildDescription(raw),
		Reminders:   append([]int(nil), config.ReminderOffsets...),
	}, nil
}

// NormalizeAll converts a batch of registrations, logging and counting skips
// instead of failing the batch. The returned events preserve input order.
func (n *Normalizer) NormalizeAll(raws []RawRegistration) (events []Event, skipped int) {
	log := slog.With(config.LogKeyComponent, config.CompEngine)

	for _, raw := range raws {
		ev, err := n.Normalize(raw)
		if err != nil {
			skipped++
			log.Warn(config.MsgSkippedRecord,
				config.LogKeyTitle, raw.Title,
				config.LogKeyReason, err.Error(),
			)
			continue
		}
		events = append(events, ev)
	}

	log.Info(config.MsgNormalized,
		config.LogKeyCount, len(events),
		config.LogKeySkipped, skipped,
	)
	return events, skipped
}

// DeriveUID builds the stable cross-run identity from the portal's external
// identifiers. The same registration always yields the same uid; distinct
// registrations never collide. Empty identifiers still produce a structurally
// valid (degenerate) uid.
func DeriveUID(pk, childID string) string {
	return fmt.Sprintf(config.FormatUID, config.UIDSource, pk, childID, config.UIDDomain)
}

// joinLocation composes venue and address, comma-joined when both are present.
func joinLocation(venue, address string) string {
	venue = strings.TrimSpace(venue)
	address = strings.TrimSpace(address)
	switch {
	case venue != "" && address != "":
		return venue + config.LocJoin + address
	case venue != "":
		return venue
	default:
		return address
	}
}

// buildDescription assembles the multi-paragraph description in fixed order:
// team label, free-text notes, attendee roster, map link. Each section is
// omitted when its source field is empty. The ordering is a presentation
// contract relied upon by the sync comparison.
func buildDescription(raw RawRegistration) string {
	var sections []string

	if team := strings.TrimSpace(raw.Team); team != "" {
		sections = append(sections, config.DescTeamLabel+team)
	}
	if notes := strings.TrimSpace(raw.Description); notes != "" {
		sections = append(sections, notes)
	}
	if len(raw.Attendees) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, config.FormatRosterHeader, len(raw.Attendees))
		for i, name := range raw.Attendees {
			b.WriteString("\n")
			fmt.Fprintf(&b, config.FormatRosterLine, i+1, strings.TrimSpace(name))
		}
		sections = append(sections, b.String())
	}
	if mapURL := strings.TrimSpace(raw.MapURL); mapURL != "" {
		sections = append(sections, config.DescMapLabel+mapURL)
	}

	return strings.Join(sections, config.SectionSep)
}
