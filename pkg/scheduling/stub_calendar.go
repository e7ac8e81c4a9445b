package scheduling

import (
	"context"
	"sync"

	"github.com/voxcal/voxcal/pkg/google"
	"golang.org/x/oauth2"
)

// StubCalendarClient is a test double for the calendar provider. When Block
// is set, CreateEvent waits on it before returning, which lets concurrency
// tests hold an attempt in flight.
type StubCalendarClient struct {
	mu       sync.Mutex
	requests []google.EventRequest
	tokens   []*oauth2.Token

	Result *google.CreatedEvent
	Err    error
	Block  chan struct{}
}

func NewStubCalendarClient() *StubCalendarClient {
	return &StubCalendarClient{
		Result: &google.CreatedEvent{
			Id:       "stub-event-id",
			HtmlLink: "https://calendar.google.com/event?eid=stub",
			Message:  "Meeting scheduled.",
		},
	}
}

func (s *StubCalendarClient) CreateEvent(ctx context.Context, token *oauth2.Token, req google.EventRequest) (*google.CreatedEvent, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.tokens = append(s.tokens, token)
	s.mu.Unlock()

	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

func (s *StubCalendarClient) Requests() []google.EventRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]google.EventRequest(nil), s.requests...)
}

func (s *StubCalendarClient) Tokens() []*oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*oauth2.Token(nil), s.tokens...)
}
