package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/voxcal/voxcal/internal/utils"
	"github.com/voxcal/voxcal/pkg/session"
)

var (
	namePhraseRe = regexp.MustCompile(`(?i)(?:i'm|i am|my name is|call me)\s+([A-Za-z]+)`)
	bareNameRe   = regexp.MustCompile(`^[A-Za-z]{2,30}[.!?]?$`)
	dateRe       = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})`)
	digitTimeRe  = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	wordTimeRe   = regexp.MustCompile(`\b(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b\s*(am|pm)\b`)
	durationRe   = regexp.MustCompile(`\b(\d{1,3})\s*(minutes|minute|mins|min|hours|hour|hrs|hr)\b`)
	titleRe      = regexp.MustCompile(`(?i)(?:titled|title is|called)\s+([^.,!?]+)`)
)

var wordHours = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

// Extractor pulls scheduling details out of a single utterance. It only
// proposes values for fields the current record does not have yet, so a later
// stray match can never overwrite an earlier answer.
type Extractor struct {
	clock utils.Clock
}

func NewExtractor(clock utils.Clock) *Extractor {
	return &Extractor{clock: clock}
}

// Extract returns a partial record with the fields found in transcript that
// are still absent in current.
func (e *Extractor) Extract(current session.DetailRecord, transcript string) session.DetailRecord {
	text := strings.TrimSpace(transcript)
	lower := strings.ToLower(text)

	var found session.DetailRecord

	if strings.TrimSpace(current.Name) == "" {
		found.Name = extractName(text)
	}
	if strings.TrimSpace(current.Date) == "" {
		found.Date = e.extractDate(text, lower)
	}
	if strings.TrimSpace(current.Time) == "" {
		// Drop any explicit date before scanning for clock times so the digits
		// of "2025-06-01" are not mistaken for an hour.
		found.Time = extractTime(dateRe.ReplaceAllString(lower, " "))
	}
	if strings.TrimSpace(current.Duration) == "" {
		found.Duration = extractDuration(lower)
	}
	if strings.TrimSpace(current.Title) == "" {
		found.Title = extractTitle(text)
	}

	return found
}

func extractName(text string) string {
	if m := namePhraseRe.FindStringSubmatch(text); m != nil {
		return capitalize(m[1])
	}
	// A lone word is treated as the answer to "what's your name?".
	if bareNameRe.MatchString(text) {
		return capitalize(strings.TrimRight(text, ".!?"))
	}
	return ""
}

func (e *Extractor) extractDate(text, lower string) string {
	now := e.clock.Now().UTC()
	if strings.Contains(lower, "tomorrow") {
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	}
	if strings.Contains(lower, "next week") {
		return now.AddDate(0, 0, 7).Format("2006-01-02")
	}

	m := dateRe.FindString(text)
	if m == "" {
		return ""
	}
	if !strings.Contains(m, "/") {
		return m
	}
	parts := strings.Split(m, "/")
	month, _ := strconv.Atoi(parts[0])
	day, _ := strconv.Atoi(parts[1])
	year := parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return fmt.Sprintf("%s-%02d-%02d", year, month, day)
}

func extractTime(lower string) string {
	for _, m := range digitTimeRe.FindAllStringSubmatch(lower, -1) {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		meridiem := m[3]
		if meridiem == "pm" && hour != 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
		if hour > 23 || minute > 59 {
			continue
		}
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	if m := wordTimeRe.FindStringSubmatch(lower); m != nil {
		hour := wordHours[m[1]]
		if m[2] == "pm" && hour != 12 {
			hour += 12
		}
		if m[2] == "am" && hour == 12 {
			hour = 0
		}
		return fmt.Sprintf("%02d:00", hour)
	}
	return ""
}

func extractDuration(lower string) string {
	m := durationRe.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	value, _ := strconv.Atoi(m[1])
	if strings.HasPrefix(m[2], "hour") || strings.HasPrefix(m[2], "hr") {
		value *= 60
	}
	return strconv.Itoa(value)
}

func extractTitle(text string) string {
	m := titleRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func capitalize(word string) string {
	if word == "" {
		return ""
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
