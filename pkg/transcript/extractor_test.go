package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/voxcal/voxcal/internal/utils"
	"github.com/voxcal/voxcal/pkg/session"
)

func newTestExtractor() *Extractor {
	// Sunday 2025-06-01 10:00 UTC
	clock := &utils.MockClock{FixedNow: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	return NewExtractor(clock)
}

func TestExtract_NamePhrases(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		transcript string
		name       string
	}{
		{"My name is amy", "Amy"},
		{"I'm forrest", "Forrest"},
		{"i am JANE", "Jane"},
		{"call me Bob", "Bob"},
		{"Forrest.", "Forrest"},
		{"two words here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			found := e.Extract(session.DetailRecord{}, tt.transcript)
			assert.Equal(t, tt.name, found.Name)
		})
	}
}

func TestExtract_DoesNotOverwriteExistingFields(t *testing.T) {
	e := newTestExtractor()
	current := session.DetailRecord{Name: "Jane", Time: "10:00"}

	found := e.Extract(current, "My name is Amy, let's meet at 3 pm")

	assert.Empty(t, found.Name, "name already collected")
	assert.Empty(t, found.Time, "time already collected")
}

func TestExtract_RelativeDates(t *testing.T) {
	e := newTestExtractor()

	found := e.Extract(session.DetailRecord{}, "let's meet tomorrow")
	assert.Equal(t, "2025-06-02", found.Date)

	found = e.Extract(session.DetailRecord{}, "sometime next week works")
	assert.Equal(t, "2025-06-08", found.Date)
}

func TestExtract_ExplicitDates(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		transcript string
		date       string
	}{
		{"how about 2025-07-15", "2025-07-15"},
		{"how about 7/15/2025", "2025-07-15"},
		{"how about 7/4/25", "2025-07-04"},
	}
	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			found := e.Extract(session.DetailRecord{}, tt.transcript)
			assert.Equal(t, tt.date, found.Date)
		})
	}
}

func TestExtract_Times(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		transcript string
		time       string
	}{
		{"at 10 pm", "22:00"},
		{"at 10:30", "10:30"},
		{"at 12 pm", "12:00"},
		{"at 12 am", "00:00"},
		{"at ten pm", "22:00"},
		{"at twelve am", "00:00"},
		{"no time mentioned", ""},
	}
	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			found := e.Extract(session.DetailRecord{}, tt.transcript)
			assert.Equal(t, tt.time, found.Time)
		})
	}
}

func TestExtract_DateDigitsAreNotATime(t *testing.T) {
	e := newTestExtractor()

	found := e.Extract(session.DetailRecord{}, "meet on 2025-06-01")

	assert.Equal(t, "2025-06-01", found.Date)
	assert.Empty(t, found.Time)
}

func TestExtract_Durations(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		transcript string
		duration   string
	}{
		{"for 30 minutes", "30"},
		{"for 45 min", "45"},
		{"for 2 hours", "120"},
		{"for 1 hr", "60"},
	}
	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			found := e.Extract(session.DetailRecord{}, tt.transcript)
			assert.Equal(t, tt.duration, found.Duration)
		})
	}
}

func TestExtract_Titles(t *testing.T) {
	e := newTestExtractor()

	found := e.Extract(session.DetailRecord{}, "make it titled Quarterly Planning, please")
	assert.Equal(t, "Quarterly Planning", found.Title)

	found = e.Extract(session.DetailRecord{}, "the meeting is called Standup.")
	assert.Equal(t, "Standup", found.Title)
}

func TestExtract_CombinedUtterance(t *testing.T) {
	e := newTestExtractor()

	found := e.Extract(session.DetailRecord{}, "My name is Amy, tomorrow at 10 pm for 30 minutes, titled Catch up")

	assert.Equal(t, "Amy", found.Name)
	assert.Equal(t, "2025-06-02", found.Date)
	assert.Equal(t, "22:00", found.Time)
	assert.Equal(t, "30", found.Duration)
	assert.Equal(t, "Catch up", found.Title)
}
