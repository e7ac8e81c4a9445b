package utils

import "time"

// Clock abstracts time.Now so time-anchored behavior — "tomorrow" in a
// transcript, session TTL expiry — can be tested against a fixed instant.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock reports a fixed instant; tests advance it with SetNow to simulate
// elapsed session lifetime.
type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}
