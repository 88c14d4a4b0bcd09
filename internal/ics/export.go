// Package ics serializes canonical events to an iCalendar interchange
// document and maps VEVENT components back to events. It is independent of
// the synchronization engine; the CalDAV adapter reuses the same mapping.
package ics

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-ical"

	"github.com/tartampluch/go-laget/internal/config"
	"github.com/tartampluch/go-laget/internal/engine"
)

// Encode renders the canonical event list as a VCALENDAR document. Every
// entry carries uid, start/end with explicit timezone, title, location,
// description, a creation timestamp and the two reminder alarms.
func Encode(events []engine.Event, now time.Time) ([]byte, error) {
	cal := NewCalendar(events, now)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// NewCalendar builds the VCALENDAR object without encoding it. The CalDAV
// adapter uses this to PUT single-event calendars.
func NewCalendar(events []engine.Event, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropXWRCalDesc, config.ICalCalDesc)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	dtStamp := ical.NewProp(config.PropDTStamp)
	dtStamp.SetDateTime(now.UTC())

	for _, e := range events {
		cal.Children = append(cal.Children, newVEvent(e, dtStamp))
	}
	return cal
}

// newVEvent maps one canonical event onto a VEVENT component.
func newVEvent(e engine.Event, dtStamp *ical.Prop) *ical.Component {
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, e.UID)
	event.Props.SetText(config.PropSummary, e.Title)
	event.Props.Set(dtStamp)

	dtStart := ical.NewProp(config.PropDTStart)
	dtStart.SetDateTime(e.Start)
	event.Props.Set(dtStart)

	dtEnd := ical.NewProp(config.PropDTEnd)
	dtEnd.SetDateTime(e.End)
	event.Props.Set(dtEnd)

	if e.Location != "" {
		event.Props.SetText(config.PropLocation, e.Location)
	}
	if e.Description != "" {
		event.Props.SetText(config.PropDescription, e.Description)
	}

	for _, trigger := range config.ReminderTriggers {
		addAlarm(event, trigger, e.Title)
	}
	return event.Component
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set the trigger manually to avoid a "VALUE=TEXT" param.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// EventFromComponent maps a VEVENT back onto a canonical event, interpreting
// date-times in the given civil zone. Reminder alarms are not read back; the
// reminder policy is fixed and excluded from sync comparison.
func EventFromComponent(ev *ical.Event, loc *time.Location) (engine.Event, error) {
	uid, err := ev.Props.Text(config.PropUID)
	if err != nil {
		return engine.Event{}, err
	}
	summary, _ := ev.Props.Text(config.PropSummary)
	location, _ := ev.Props.Text(config.PropLocation)
	description, _ := ev.Props.Text(config.PropDescription)

	start, err := ev.DateTimeStart(loc)
	if err != nil {
		return engine.Event{}, err
	}
	end, err := ev.DateTimeEnd(loc)
	if err != nil {
		return engine.Event{}, err
	}

	return engine.Event{
		UID:         uid,
		Title:       summary,
		Start:       start,
		End:         end,
		Location:    location,
		Description: description,
		Reminders:   append([]int(nil), config.ReminderOffsets...),
	}, nil
}

// WriteFile writes the encoded calendar all-or-nothing: the document is
// staged in a temp file and renamed over the destination, so a failure never
// leaves a partial file behind.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".laget-ics-*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrICalWrite, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", config.ErrICalWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", config.ErrICalWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%s: %w", config.ErrICalWrite, err)
	}

	slog.Info(config.MsgICSWritten,
		config.LogKeyComponent, config.CompExport,
		config.LogKeyFile, path,
		config.LogKeySizeBytes, len(data),
	)
	return nil
}
