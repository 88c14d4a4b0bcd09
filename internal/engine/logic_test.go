package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------
// White-Box Tests of Internal Helpers
// -----------------------------------------------------------------------------

func TestJoinLocation(t *testing.T) {
	tests := []struct {
		name    string
		venue   string
		address string
		want    string
	}{
		{"Both present", "Zinkensdamms IP", "Ringvägen 12", "Zinkensdamms IP, Ringvägen 12"},
		{"Venue only", "Zinkensdamms IP", "", "Zinkensdamms IP"},
		{"Address only", "", "Ringvägen 12", "Ringvägen 12"},
		{"Both empty", "", "", ""},
		{"Whitespace trimmed", " Zinkensdamms IP ", "  ", "Zinkensdamms IP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joinLocation(tt.venue, tt.address))
		})
	}
}

func TestFirstClock(t *testing.T) {
	tests := []struct {
		name     string
		frag     string
		wantHour int
		wantMin  int
		wantOK   bool
	}{
		{"Bare clock", "10:00", 10, 0, true},
		{"Range takes first", "10:00-11:30", 10, 0, true},
		{"Embedded in prose", "Samling 09:45 vid entrén", 9, 45, true},
		{"Single digit hour", "9:05", 9, 5, true},
		{"No clock", "hela dagen", 0, 0, false},
		{"Empty", "", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, min, ok := firstClock(tt.frag)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantHour, hour)
				assert.Equal(t, tt.wantMin, min)
			}
		})
	}
}

func TestBuildDescription_RosterNumbering(t *testing.T) {
	raw := RawRegistration{
		Attendees: []string{" Erik ", "Lova"},
	}

	got := buildDescription(raw)
	assert.Equal(t, "Anmälda (2):\n1. Erik\n2. Lova", got)
}

func TestBuildDescription_SingleSectionHasNoSeparator(t *testing.T) {
	raw := RawRegistration{Team: "P2014 Blå"}

	got := buildDescription(raw)
	assert.Equal(t, "Lag: P2014 Blå", got)
}
