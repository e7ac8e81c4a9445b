package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxcal/voxcal/internal/event_bus"
	"github.com/voxcal/voxcal/internal/utils"
	"github.com/voxcal/voxcal/pkg/assistant"
	"github.com/voxcal/voxcal/pkg/session"
	"github.com/voxcal/voxcal/pkg/transcript"
	"golang.org/x/oauth2"
)

type testEnv struct {
	service  *Service
	sessions session.Service
	calendar *StubCalendarClient
	guard    *CreationGuard
}

func newTestEnv(reply string) *testEnv {
	clock := &utils.MockClock{FixedNow: time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)}
	repo := session.NewMemoryRepository(time.Hour, clock)
	sessions := session.NewService(repo, "America/New_York", clock)
	calendar := NewStubCalendarClient()
	guard := NewCreationGuard()

	service := NewService(
		sessions,
		transcript.NewExtractor(clock),
		&assistant.StaticResponder{Message: reply},
		calendar,
		guard,
		event_bus.NewEventBus(),
	)
	return &testEnv{
		service:  service,
		sessions: sessions,
		calendar: calendar,
		guard:    guard,
	}
}

func (e *testEnv) newSession(t *testing.T) session.Session {
	sess, err := e.sessions.Create(context.Background(), "")
	require.NoError(t, err)
	return sess
}

func TestProcessTranscript_CollectThenConfirm(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)
	assert.Equal(t, "America/New_York", sess.Timezone)

	result, err := env.service.ProcessTranscript(ctx, sess.Id, "My name is Jane")
	require.NoError(t, err)
	assert.Equal(t, "Jane", result.Details.Name)
	assert.False(t, result.Ready)
	assert.False(t, result.EventCreated)

	result, err = env.service.ProcessTranscript(ctx, sess.Id, "Let's meet on 2025-06-01 at 10:00 am")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", result.Details.Date)
	assert.Equal(t, "10:00", result.Details.Time)
	assert.True(t, result.Ready)
	assert.False(t, result.EventCreated)
	assert.Empty(t, env.calendar.Requests())

	result, err = env.service.ProcessTranscript(ctx, sess.Id, "Yes, that's right.")
	require.NoError(t, err)
	assert.True(t, result.EventCreated)
	assert.Equal(t, "stub-event-id", result.EventId)
	assert.NotEmpty(t, result.EventLink)

	requests := env.calendar.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "Jane", requests[0].Name)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), requests[0].Start)
	assert.Equal(t, "America/New_York", requests[0].Timezone)
}

func TestProcessTranscript_SecondConfirmationDoesNotCreateTwice(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	_, err := env.service.ProcessTranscript(ctx, sess.Id, "My name is Jane, 2025-06-01 at 10:00 am")
	require.NoError(t, err)
	result, err := env.service.ProcessTranscript(ctx, sess.Id, "yes")
	require.NoError(t, err)
	assert.True(t, result.EventCreated)

	result, err = env.service.ProcessTranscript(ctx, sess.Id, "yes, go ahead")
	require.NoError(t, err)
	assert.True(t, result.EventCreated)
	assert.Equal(t, "stub-event-id", result.EventId)
	assert.Len(t, env.calendar.Requests(), 1)
}

func TestProcessTranscript_ConfirmationBeforeReadyIsIgnored(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	result, err := env.service.ProcessTranscript(ctx, sess.Id, "yes, titled Budget review")
	require.NoError(t, err)
	assert.Equal(t, "Budget review", result.Details.Title)
	assert.False(t, result.Ready)
	assert.False(t, result.EventCreated)
	assert.Empty(t, env.calendar.Requests())
}

func TestProcessTranscript_AssistantIntentTriggersCreation(t *testing.T) {
	env := newTestEnv("Perfect! I'm ready to create your event now.")
	ctx := context.Background()
	sess := env.newSession(t)

	_, _, err := env.sessions.UpdateDetails(ctx, sess.Id, session.DetailRecord{
		Name: "Jane",
		Date: "2025-06-01",
	})
	require.NoError(t, err)

	result, err := env.service.ProcessTranscript(ctx, sess.Id, "at 10:00 am please")
	require.NoError(t, err)
	assert.True(t, result.EventCreated)
	assert.Len(t, env.calendar.Requests(), 1)
}

func TestProcessTranscript_EmptyTranscript(t *testing.T) {
	env := newTestEnv("Got it.")
	sess := env.newSession(t)

	_, err := env.service.ProcessTranscript(context.Background(), sess.Id, "   ")
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestProcessTranscript_UnknownSession(t *testing.T) {
	env := newTestEnv("Got it.")

	_, err := env.service.ProcessTranscript(context.Background(), "no-such-session", "hello")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestProcessTranscript_AdapterFailureAllowsRetry(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	_, err := env.service.ProcessTranscript(ctx, sess.Id, "My name is Jane, 2025-06-01 at 10:00 am")
	require.NoError(t, err)

	env.calendar.Err = errors.New("calendar unavailable")
	result, err := env.service.ProcessTranscript(ctx, sess.Id, "yes")
	require.NoError(t, err)
	assert.False(t, result.EventCreated)
	// Details survive the failure so the user does not have to start over.
	assert.Equal(t, "Jane", result.Details.Name)
	assert.True(t, result.Ready)

	stored, err := env.sessions.Get(ctx, sess.Id)
	require.NoError(t, err)
	assert.Equal(t, session.StateCollecting, stored.State)

	env.calendar.Err = nil
	result, err = env.service.ProcessTranscript(ctx, sess.Id, "yes")
	require.NoError(t, err)
	assert.True(t, result.EventCreated)
	assert.Len(t, env.calendar.Requests(), 2)
}

func TestCreateEvent_MissingFields(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	_, _, err := env.sessions.UpdateDetails(ctx, sess.Id, session.DetailRecord{Title: "Budget review"})
	require.NoError(t, err)

	_, err = env.service.CreateEvent(ctx, sess.Id, nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Reason, "name")
	assert.Contains(t, validationErr.Reason, "date")
	assert.Contains(t, validationErr.Reason, "time")
	assert.Empty(t, env.calendar.Requests())
}

func TestCreateEvent_UnknownSession(t *testing.T) {
	env := newTestEnv("Got it.")

	_, err := env.service.CreateEvent(context.Background(), "no-such-session", nil)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestCreateEvent_OverrideMergedAndRetained(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	result, err := env.service.CreateEvent(ctx, sess.Id, &session.DetailRecord{
		Name:     "Jane",
		Date:     "2025-06-01",
		Time:     "10:00",
		Duration: "30",
		Title:    "Budget review",
	})
	require.NoError(t, err)
	assert.Equal(t, "stub-event-id", result.EventId)

	requests := env.calendar.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "Budget review", requests[0].Title)
	assert.Equal(t, 30, requests[0].DurationMinutes)

	stored, err := env.sessions.Get(ctx, sess.Id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.Details.Name)
	assert.Equal(t, session.StateDone, stored.State)
}

func TestCreateEvent_IdempotentWhenDone(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	details := &session.DetailRecord{Name: "Jane", Date: "2025-06-01", Time: "10:00"}
	first, err := env.service.CreateEvent(ctx, sess.Id, details)
	require.NoError(t, err)

	second, err := env.service.CreateEvent(ctx, sess.Id, nil)
	require.NoError(t, err)
	assert.Equal(t, first.EventId, second.EventId)
	assert.Len(t, env.calendar.Requests(), 1)
}

func TestCreateEvent_ConcurrentAttemptsSingleFlight(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	_, _, err := env.sessions.UpdateDetails(ctx, sess.Id, session.DetailRecord{
		Name: "Jane", Date: "2025-06-01", Time: "10:00",
	})
	require.NoError(t, err)

	env.calendar.Block = make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		_, err := env.service.CreateEvent(ctx, sess.Id, nil)
		firstDone <- err
	}()

	require.Eventually(t, func() bool {
		return len(env.calendar.Requests()) == 1
	}, time.Second, 5*time.Millisecond)

	_, err = env.service.CreateEvent(ctx, sess.Id, nil)
	assert.ErrorIs(t, err, ErrCreationInFlight)

	close(env.calendar.Block)
	require.NoError(t, <-firstDone)
	assert.Len(t, env.calendar.Requests(), 1)
}

func TestCreateEvent_UsesStoredTokensWhenAuthed(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	require.NoError(t, env.sessions.StoreTokens(ctx, sess.Id, &oauth2.Token{AccessToken: "user-token"}))

	_, err := env.service.CreateEvent(ctx, sess.Id, &session.DetailRecord{
		Name: "Jane", Date: "2025-06-01", Time: "10:00",
	})
	require.NoError(t, err)

	tokens := env.calendar.Tokens()
	require.Len(t, tokens, 1)
	require.NotNil(t, tokens[0])
	assert.Equal(t, "user-token", tokens[0].AccessToken)
}

func TestCreateEvent_NilTokenWithoutAuth(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	_, err := env.service.CreateEvent(ctx, sess.Id, &session.DetailRecord{
		Name: "Jane", Date: "2025-06-01", Time: "10:00",
	})
	require.NoError(t, err)

	tokens := env.calendar.Tokens()
	require.Len(t, tokens, 1)
	assert.Nil(t, tokens[0])
}

func TestReset_ClearsGuardAndDetails(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	_, _, err := env.sessions.UpdateDetails(ctx, sess.Id, session.DetailRecord{
		Name: "Jane", Date: "2025-06-01", Time: "10:00",
	})
	require.NoError(t, err)
	require.True(t, env.guard.TryAcquire(sess.Id))

	reset, err := env.service.Reset(ctx, sess.Id)
	require.NoError(t, err)
	assert.Equal(t, session.StateIdle, reset.State)
	assert.True(t, reset.Details.IsEmpty())
	assert.Equal(t, "America/New_York", reset.Timezone)

	// The guard was released, so a fresh creation can proceed.
	_, err = env.service.CreateEvent(ctx, sess.Id, &session.DetailRecord{
		Name: "Jane", Date: "2025-06-01", Time: "10:00",
	})
	require.NoError(t, err)
}

func TestApplyToolCalls_MixedBatch(t *testing.T) {
	env := newTestEnv("Got it.")
	ctx := context.Background()
	sess := env.newSession(t)

	results := env.service.ApplyToolCalls(ctx, []ToolCall{
		{
			Id: "call-1",
			Args: map[string]any{
				"sessionId": sess.Id,
				"userDetails": map[string]any{
					"name":     "Jane",
					"date":     "2025-06-01",
					"time":     "10:00",
					"duration": 30,
				},
			},
		},
		{
			Id:   "call-2",
			Args: map[string]any{"sessionId": "no-such-session"},
		},
		{
			Id:   "call-3",
			Args: map[string]any{},
		},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "call-1", results[0].ToolCallId)
	assert.Contains(t, results[0].Result, `"ok":true`)
	assert.Contains(t, results[0].Result, `"isReadyForEvent":true`)
	assert.Contains(t, results[0].Result, `"duration":"30"`)
	assert.NotContains(t, results[0].Result, "\n")

	assert.Contains(t, results[1].Result, `"ok":false`)
	assert.Contains(t, results[1].Result, "Invalid sessionId")
	assert.Contains(t, results[2].Result, "Invalid sessionId")

	stored, err := env.sessions.Get(ctx, sess.Id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.Details.Name)
	assert.Equal(t, "30", stored.Details.Duration)
}
