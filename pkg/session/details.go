package session

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DetailRecord holds the five scheduling fields collected incrementally from
// speech. All fields are optional until readiness is reached.
type DetailRecord struct {
	Name     string `json:"name,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Duration string `json:"duration,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Merge overlays incoming onto d field by field. A non-blank incoming field
// wins; a blank one never erases a stored value.
func (d DetailRecord) Merge(incoming DetailRecord) DetailRecord {
	merged := d
	if strings.TrimSpace(incoming.Name) != "" {
		merged.Name = incoming.Name
	}
	if strings.TrimSpace(incoming.Date) != "" {
		merged.Date = incoming.Date
	}
	if strings.TrimSpace(incoming.Time) != "" {
		merged.Time = incoming.Time
	}
	if strings.TrimSpace(incoming.Duration) != "" {
		merged.Duration = incoming.Duration
	}
	if strings.TrimSpace(incoming.Title) != "" {
		merged.Title = incoming.Title
	}
	return merged
}

// IsReady reports whether enough information exists to create a calendar
// event: name, date and time. Duration and title fall back to defaults.
func (d DetailRecord) IsReady() bool {
	return strings.TrimSpace(d.Name) != "" &&
		strings.TrimSpace(d.Date) != "" &&
		strings.TrimSpace(d.Time) != ""
}

// MissingFields lists the required fields that are still blank.
func (d DetailRecord) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(d.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(d.Time) == "" {
		missing = append(missing, "time")
	}
	return missing
}

// IsEmpty reports whether no field has been collected yet.
func (d DetailRecord) IsEmpty() bool {
	return d == DetailRecord{}
}

// UnmarshalJSON accepts the loose detail objects the voice tooling sends:
// unknown keys are ignored and numeric durations are normalized to strings.
func (d *DetailRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DetailRecordFromMap(raw)
	return nil
}

// DetailRecordFromMap builds a DetailRecord from a decoded JSON object,
// applying the same tolerance rules as UnmarshalJSON.
func DetailRecordFromMap(raw map[string]any) DetailRecord {
	return DetailRecord{
		Name:     stringValue(raw["name"]),
		Date:     stringValue(raw["date"]),
		Time:     stringValue(raw["time"]),
		Duration: stringValue(raw["duration"]),
		Title:    stringValue(raw["title"]),
	}
}

func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		if value == math.Trunc(value) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		return value.String()
	default:
		return ""
	}
}
