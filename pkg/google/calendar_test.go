package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEvent_Defaults(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	event := buildEvent(EventRequest{
		Name:     "Jane",
		Start:    start,
		Timezone: "America/New_York",
	}, "")

	assert.Equal(t, "Meeting with Jane", event.Summary)
	assert.Equal(t, "Meeting with Jane", event.Description)
	assert.Equal(t, "2025-06-01T10:00:00", event.Start.DateTime)
	assert.Equal(t, "2025-06-01T11:00:00", event.End.DateTime, "default duration is one hour")
	assert.Equal(t, "America/New_York", event.Start.TimeZone)
	assert.Equal(t, "America/New_York", event.End.TimeZone)
	assert.Empty(t, event.Attendees)
}

func TestBuildEvent_ExplicitTitleAndDuration(t *testing.T) {
	start := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	event := buildEvent(EventRequest{
		Name:            "Amy",
		Title:           "Quarterly Planning",
		Start:           start,
		DurationMinutes: 30,
		Timezone:        "Europe/Warsaw",
	}, "host@example.com")

	assert.Equal(t, "Quarterly Planning", event.Summary)
	assert.Equal(t, "2025-06-01T22:30:00", event.End.DateTime)
	require.Len(t, event.Attendees, 1)
	assert.Equal(t, "host@example.com", event.Attendees[0].Email)
}

func TestBuildEvent_NoOffsetInLocalDateTime(t *testing.T) {
	// A start carrying a zone must still serialize as a plain local datetime;
	// the zone travels in the separate TimeZone field.
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, loc)

	event := buildEvent(EventRequest{Name: "Jane", Start: start, Timezone: "America/New_York"}, "")

	assert.Equal(t, "2025-06-01T10:00:00", event.Start.DateTime)
	assert.NotContains(t, event.Start.DateTime, "+")
	assert.NotContains(t, event.Start.DateTime, "Z")
}
