// Package caldav adapts a remote CalDAV calendar collection to the
// engine.CalendarBackend capability. Events are located by their iCalendar
// UID via calendar-query REPORTs over a fixed time window.
package caldav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"github.com/tartampluch/go-laget/internal/config"
	"github.com/tartampluch/go-laget/internal/engine"
	"github.com/tartampluch/go-laget/internal/ics"
)

// Backend implements engine.CalendarBackend against a CalDAV server.
type Backend struct {
	Clock    engine.Clock
	Location *time.Location

	endpoint     string
	username     string
	password     string
	calendarName string

	client       *caldav.Client
	calendarPath string

	// objectPaths remembers where GetByUID found each uid, so Update can
	// overwrite the existing resource instead of creating a sibling.
	objectPaths map[string]string
}

// New creates an unauthenticated CalDAV backend from settings.
func New(s *config.CalDAVSettings, clock engine.Clock, loc *time.Location) *Backend {
	return &Backend{
		Clock:        clock,
		Location:     loc,
		endpoint:     s.URL,
		username:     s.Username,
		password:     s.Password,
		calendarName: s.Calendar,
		objectPaths:  make(map[string]string),
	}
}

// Name identifies the backend in logs and tallies.
func (b *Backend) Name() string {
	return config.BackendCalDAV
}

// Authenticate discovers the current user principal, the calendar home set
// and the target calendar collection. The HTTP client carries its own
// timeout so a stuck handshake cannot block a run indefinitely.
func (b *Backend) Authenticate(ctx context.Context) error {
	httpClient := webdav.HTTPClientWithBasicAuth(
		&http.Client{Timeout: config.HTTPTimeout},
		b.username,
		b.password,
	)

	client, err := caldav.NewClient(httpClient, b.endpoint)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrAuthFailed, err)
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrAuthFailed, err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrAuthFailed, err)
	}
	calendars, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrAuthFailed, err)
	}
	if len(calendars) == 0 {
		return errors.New(config.ErrCalendarNotFound)
	}

	b.calendarPath = calendars[0].Path
	for _, cal := range calendars {
		if b.calendarName != "" && cal.Name == b.calendarName {
			b.calendarPath = cal.Path
			break
		}
	}

	b.client = client
	slog.Debug(config.MsgLoginOK,
		config.LogKeyComponent, config.CompCalDAV,
		config.LogKeyURL, b.calendarPath,
	)
	return nil
}

// GetByUID issues a calendar-query REPORT filtered on the UID property,
// bounded to the contract's search window around now. Absence is (nil, nil).
func (b *Backend) GetByUID(ctx context.Context, uid string) (*engine.Event, error) {
	now := b.Clock.Now()
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{
				Name:     "VEVENT",
				AllProps: true,
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: now.Add(-config.SearchWindow),
				End:   now.Add(config.SearchWindow),
				Props: []caldav.PropFilter{{
					Name:      config.PropUID,
					TextMatch: &caldav.TextMatch{Text: uid},
				}},
			}},
		},
	}

	objects, err := b.client.QueryCalendar(ctx, b.calendarPath, query)
	if err != nil {
		return nil, err
	}

	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, ev := range obj.Data.Events() {
			id, err := ev.Props.Text(config.PropUID)
			if err != nil || id != uid {
				continue
			}
			found, err := ics.EventFromComponent(&ev, b.Location)
			if err != nil {
				return nil, err
			}
			b.objectPaths[uid] = obj.Path
			return &found, nil
		}
	}
	return nil, nil
}

// Add PUTs a single-event calendar object named after the uid.
func (b *Backend) Add(ctx context.Context, event engine.Event) error {
	return b.put(ctx, b.objectPath(event.UID), event)
}

// Update overwrites the resource previously located by GetByUID. The uid is
// carried unchanged inside the replacement object.
func (b *Backend) Update(ctx context.Context, uid string, event engine.Event) error {
	path, found := b.objectPaths[uid]
	if !found {
		path = b.objectPath(uid)
	}
	return b.put(ctx, path, event)
}

func (b *Backend) put(ctx context.Context, path string, event engine.Event) error {
	cal := ics.NewCalendar([]engine.Event{event}, b.Clock.Now())
	_, err := b.client.PutCalendarObject(ctx, path, cal)
	return err
}

// objectPath derives the canonical resource path for a uid inside the
// calendar collection.
func (b *Backend) objectPath(uid string) string {
	return b.calendarPath + url.PathEscape(uid) + config.ExtICS
}
