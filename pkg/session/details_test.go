package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_NonEmptyFieldsOverwrite(t *testing.T) {
	current := DetailRecord{Name: "Jane", Date: "2025-06-01"}
	incoming := DetailRecord{Name: "John", Time: "10:00"}

	merged := current.Merge(incoming)

	assert.Equal(t, "John", merged.Name)
	assert.Equal(t, "2025-06-01", merged.Date)
	assert.Equal(t, "10:00", merged.Time)
}

func TestMerge_BlankFieldsNeverErase(t *testing.T) {
	current := DetailRecord{
		Name:     "Jane",
		Date:     "2025-06-01",
		Time:     "10:00",
		Duration: "30",
		Title:    "Standup",
	}

	merged := current.Merge(DetailRecord{})
	assert.Equal(t, current, merged, "empty update must not clear anything")

	merged = current.Merge(DetailRecord{Name: "   ", Title: "\t"})
	assert.Equal(t, current, merged, "whitespace-only update must not clear anything")
}

func TestIsReady_RequiresNameDateTime(t *testing.T) {
	tests := []struct {
		name   string
		record DetailRecord
		ready  bool
	}{
		{"empty", DetailRecord{}, false},
		{"only title", DetailRecord{Title: "Standup"}, false},
		{"name and date", DetailRecord{Name: "Jane", Date: "2025-06-01"}, false},
		{"core fields", DetailRecord{Name: "Jane", Date: "2025-06-01", Time: "10:00"}, true},
		{"whitespace time", DetailRecord{Name: "Jane", Date: "2025-06-01", Time: "   "}, false},
		{"all fields", DetailRecord{Name: "Jane", Date: "2025-06-01", Time: "10:00", Duration: "45", Title: "Sync"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ready, tt.record.IsReady())
		})
	}
}

func TestIsReady_DurationAndTitleIrrelevant(t *testing.T) {
	record := DetailRecord{Name: "Jane", Date: "2025-06-01", Time: "10:00"}
	assert.True(t, record.IsReady())

	withExtras := record.Merge(DetailRecord{Duration: "30", Title: "Planning"})
	assert.True(t, withExtras.IsReady(), "adding duration/title must not change readiness")
}

func TestMissingFields(t *testing.T) {
	assert.Equal(t, []string{"name", "date", "time"}, DetailRecord{}.MissingFields())
	assert.Equal(t, []string{"time"}, DetailRecord{Name: "Jane", Date: "2025-06-01"}.MissingFields())
	assert.Empty(t, DetailRecord{Name: "Jane", Date: "2025-06-01", Time: "10:00"}.MissingFields())
}

func TestUnmarshalJSON_ToleratesUnknownKeysAndNumbers(t *testing.T) {
	payload := `{"name":"Jane","duration":60,"title":"Standup","somethingElse":true,"nested":{"x":1}}`

	var record DetailRecord
	err := json.Unmarshal([]byte(payload), &record)

	assert.NoError(t, err)
	assert.Equal(t, "Jane", record.Name)
	assert.Equal(t, "60", record.Duration, "numeric duration is normalized to a string")
	assert.Equal(t, "Standup", record.Title)
	assert.Empty(t, record.Date)
}

func TestDetailRecordFromMap_IgnoresNonScalarValues(t *testing.T) {
	record := DetailRecordFromMap(map[string]any{
		"name":     "Amy",
		"date":     nil,
		"time":     []any{"10:00"},
		"duration": 45.5,
	})

	assert.Equal(t, "Amy", record.Name)
	assert.Empty(t, record.Date)
	assert.Empty(t, record.Time)
	assert.Equal(t, "45.5", record.Duration)
}
