package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tartampluch/go-laget/internal/config"
)

// monthsSV maps Swedish month names (full and abbreviated) to month numbers.
// "maj" needs no abbreviation and "maj"/"mar" never collide; the table is the
// exact format family the portal emits.
var monthsSV = map[string]time.Month{
	"januari": time.January, "februari": time.February, "mars": time.March,
	"april": time.April, "maj": time.May, "juni": time.June,
	"juli": time.July, "augusti": time.August, "september": time.September,
	"oktober": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "jun": time.June, "jul": time.July,
	"aug": time.August, "sep": time.September, "okt": time.October,
	"nov": time.November, "dec": time.December,
}

var (
	// dayMonthRe captures the first "<day> <month-word>" pair in a date fragment.
	dayMonthRe = regexp.MustCompile(`(\d+)\s+(\p{L}+)`)
	// clockRe captures the first "HH:MM" occurrence in a fragment.
	clockRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	// endClockRe captures an "HH:MM" that follows a literal dash (end time).
	endClockRe = regexp.MustCompile(`-\s*(\d{1,2}):(\d{2})`)
)

// lowerSV folds month names case-insensitively under Swedish casing rules.
var lowerSV = cases.Lower(language.Swedish)

// Resolver turns the portal's locale-specific date/time fragments into
// precise start/end instants in a fixed civil timezone. It is stateless
// apart from the injected clock (year resolution) and timezone.
type Resolver struct {
	Clock    Clock
	Location *time.Location
}

// NewResolver constructs a Resolver for the portal's civil timezone.
func NewResolver(clock Clock) (*Resolver, error) {
	loc, err := time.LoadLocation(config.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTimezoneLoad, err)
	}
	return &Resolver{Clock: clock, Location: loc}, nil
}

// Resolve parses a date fragment ("16 november"), a time fragment
// ("10:00-11:00") and an optional gathering fragment ("16 nov, 09:45") into
// a start/end pair. The gathering time, when present and parseable,
// supersedes the event time as the calendar start. Without an explicit end
// time the event lasts exactly one hour.
//
// The year is always the current calendar year at resolution time; dates
// never span a year boundary in the source data, so no rollover correction
// is attempted.
//
// Failure is silent: ok=false means "insufficient information" and the
// caller decides disposition.
func (r *Resolver) Resolve(dateFrag, timeFrag, gatheringFrag string) (start, end time.Time, ok bool) {
	m := dayMonthRe.FindStringSubmatch(dateFrag)
	if m == nil {
		return time.Time{}, time.Time{}, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	month, found := monthsSV[lowerSV.String(m[2])]
	if !found {
		return time.Time{}, time.Time{}, false
	}

	year := r.Clock.Now().Year()

	// Start: gathering time wins when it contains a clock pattern.
	startHour, startMin, found := firstClock(gatheringFrag)
	if !found {
		startHour, startMin, found = firstClock(timeFrag)
		if !found {
			return time.Time{}, time.Time{}, false
		}
	}
	start = time.Date(year, month, day, startHour, startMin, 0, 0, r.Location)
	// time.Date normalizes out-of-range values ("32 november" becomes
	// December 2). Such input is garbage, not a date.
	if start.Day() != day || start.Month() != month {
		return time.Time{}, time.Time{}, false
	}

	// End: explicit "-HH:MM" on the same day, otherwise a fixed one hour.
	// An explicit end at or before the start (possible when a gathering time
	// is late, or on malformed input) also falls back to the fixed duration
	// so that start < end always holds.
	if em := endClockRe.FindStringSubmatch(timeFrag); em != nil {
		endHour, _ := strconv.Atoi(em[1])
		endMin, _ := strconv.Atoi(em[2])
		end = time.Date(year, month, day, endHour, endMin, 0, 0, r.Location)
	}
	if !end.After(start) {
		end = start.Add(config.DefaultDuration)
	}

	return start, end, true
}

// firstClock extracts the first HH:MM occurrence from a fragment.
func firstClock(frag string) (hour, min int, ok bool) {
	if frag == "" {
		return 0, 0, false
	}
	m := clockRe.FindStringSubmatch(frag)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	min, _ = strconv.Atoi(m[2])
	if hour > 23 || min > 59 {
		return 0, 0, false
	}
	return hour, min, true
}
