package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/voxcal/voxcal/internal/event_bus"
	"github.com/voxcal/voxcal/pkg/assistant"
	"github.com/voxcal/voxcal/pkg/google"
	"github.com/voxcal/voxcal/pkg/session"
	"github.com/voxcal/voxcal/pkg/transcript"
	"golang.org/x/oauth2"
)

var ErrEmptyTranscript = errors.New("empty transcript")

// ValidationError reports a creation attempt with an unusable detail record.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func newMissingFieldsError(missing []string) *ValidationError {
	return &ValidationError{Reason: "Missing required fields: " + strings.Join(missing, ", ")}
}

// CreationResult echoes the provider-assigned identifiers back to the caller.
// The event itself is not stored here.
type CreationResult struct {
	EventId   string
	EventLink string
	Message   string
}

// ProcessResult is what one processed transcript yields: the assistant's next
// line, the merged record, and whether a triggered creation completed.
type ProcessResult struct {
	AssistantMessage string
	Details          session.DetailRecord
	Ready            bool
	EventCreated     bool
	EventId          string
	EventLink        string
}

// Service orchestrates the collect-confirm-create flow. The conversational
// creation signals (user confirmation, assistant intent) publish the
// creation-requested bus event whose handler is CreateEvent; the explicit API
// call invokes CreateEvent directly. Either way the per-session guard is
// checked in exactly one place.
type Service struct {
	sessions  session.Service
	extractor *transcript.Extractor
	responder assistant.Responder
	calendar  google.Client
	guard     *CreationGuard
	bus       *event_bus.EventBus
}

func NewService(
	sessions session.Service,
	extractor *transcript.Extractor,
	responder assistant.Responder,
	calendar google.Client,
	guard *CreationGuard,
	bus *event_bus.EventBus,
) *Service {
	s := &Service{
		sessions:  sessions,
		extractor: extractor,
		responder: responder,
		calendar:  calendar,
		guard:     guard,
		bus:       bus,
	}
	event_bus.SubscribeTyped[event_bus.CreationRequested](bus, event_bus.EventCreationRequested, s.onCreationRequested)
	return s
}

// ProcessTranscript handles one final user transcript: extract details, merge
// them into the session, generate the assistant reply, and fire the creation
// trigger when the conversation has reached that point.
func (s *Service) ProcessTranscript(ctx context.Context, sessionId, userTranscript string) (*ProcessResult, error) {
	trimmed := strings.TrimSpace(userTranscript)
	if trimmed == "" {
		return nil, ErrEmptyTranscript
	}

	current, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	log.Debugf("processing transcript for session %s: %q", sessionId, trimmed)

	found := s.extractor.Extract(current.Details, trimmed)
	updated, ready, err := s.sessions.UpdateDetails(ctx, sessionId, found)
	if err != nil {
		return nil, err
	}

	reply, err := s.responder.Reply(ctx, updated.Details, trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate assistant reply: %w", err)
	}

	// Creation only triggers once the record is ready; the readiness gate
	// makes a stray "yes" on a fresh session harmless.
	if ready && transcript.IsConfirmation(trimmed) {
		s.requestCreation(ctx, sessionId, event_bus.TriggerUserConfirmation)
	} else if ready && transcript.ImpliesCreation(reply) {
		s.requestCreation(ctx, sessionId, event_bus.TriggerAssistantIntent)
	}

	final, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{
		AssistantMessage: reply,
		Details:          final.Details,
		Ready:            final.Details.IsReady(),
		EventCreated:     final.State == session.StateDone,
		EventId:          final.EventId,
		EventLink:        final.EventLink,
	}, nil
}

func (s *Service) requestCreation(ctx context.Context, sessionId string, trigger event_bus.CreationTrigger) {
	event := event_bus.NewEvent(ctx, event_bus.EventCreationRequested, event_bus.CreationRequested{
		SessionId: sessionId,
		Trigger:   trigger,
	})
	if err := s.bus.Publish(event); err != nil {
		// The failure is already reflected in the session state; the caller
		// keeps the collected details and may retry.
		log.Warnf("creation trigger (%s) for session %s failed: %v", trigger, sessionId, err)
	}
}

func (s *Service) onCreationRequested(ctx context.Context, req event_bus.CreationRequested) error {
	_, err := s.CreateEvent(ctx, req.SessionId, nil)
	if errors.Is(err, ErrCreationInFlight) {
		log.Debugf("duplicate creation trigger (%s) for session %s dropped", req.Trigger, req.SessionId)
		return nil
	}
	return err
}

// CreateEvent runs one guarded creation attempt. An override record, when
// given, is merged into the session's details first (and therefore retained
// for retries). Once a session is done the recorded result is returned
// instead of creating a second event.
func (s *Service) CreateEvent(ctx context.Context, sessionId string, override *session.DetailRecord) (*CreationResult, error) {
	sess, err := s.sessions.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	if override != nil && !override.IsEmpty() {
		sess, _, err = s.sessions.UpdateDetails(ctx, sessionId, *override)
		if err != nil {
			return nil, err
		}
	}

	if sess.State == session.StateDone {
		log.Debugf("session %s already has event %s, skipping creation", sessionId, sess.EventId)
		return &CreationResult{EventId: sess.EventId, EventLink: sess.EventLink}, nil
	}

	if missing := sess.Details.MissingFields(); len(missing) > 0 {
		return nil, newMissingFieldsError(missing)
	}

	if !s.guard.TryAcquire(sessionId) {
		return nil, ErrCreationInFlight
	}
	defer s.guard.Release(sessionId)

	if _, err := s.sessions.SetState(ctx, sessionId, session.StateCreating); err != nil {
		return nil, err
	}

	start, err := ParseStart(sess.Details.Date, sess.Details.Time)
	if err != nil {
		s.backToCollecting(ctx, sessionId)
		return nil, &ValidationError{Reason: err.Error()}
	}

	var token *oauth2.Token
	if sess.Authed {
		token = sess.Tokens
	}

	created, err := s.calendar.CreateEvent(ctx, token, google.EventRequest{
		Name:            sess.Details.Name,
		Title:           sess.Details.Title,
		Start:           start,
		DurationMinutes: parseDurationMinutes(sess.Details.Duration),
		Timezone:        sess.Timezone,
	})
	if err != nil {
		// Adapter failure: details are retained and the guard is released on
		// return, so an identical confirmation can retry.
		s.backToCollecting(ctx, sessionId)
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if _, err := s.sessions.RecordCreatedEvent(ctx, sessionId, created.Id, created.HtmlLink); err != nil {
		log.Errorf("event %s created but could not be recorded on session %s: %v", created.Id, sessionId, err)
	}

	return &CreationResult{
		EventId:   created.Id,
		EventLink: created.HtmlLink,
		Message:   created.Message,
	}, nil
}

func (s *Service) backToCollecting(ctx context.Context, sessionId string) {
	if _, err := s.sessions.SetState(ctx, sessionId, session.StateCollecting); err != nil {
		log.Errorf("failed to return session %s to collecting: %v", sessionId, err)
	}
}

// Reset returns a session to idle, clearing details and the creation guard
// unconditionally, even if an attempt is still in flight.
func (s *Service) Reset(ctx context.Context, sessionId string) (session.Session, error) {
	s.guard.Release(sessionId)
	return s.sessions.Reset(ctx, sessionId)
}

// ToolCallResult is the per-call answer the voice platform requires: a
// single-line JSON string.
type ToolCallResult struct {
	ToolCallId string `json:"toolCallId"`
	Result     string `json:"result"`
}

type toolCallOutcome struct {
	Ok              bool                  `json:"ok"`
	Error           string                `json:"error,omitempty"`
	SessionId       string                `json:"sessionId,omitempty"`
	UserDetails     *session.DetailRecord `json:"userDetails,omitempty"`
	IsReadyForEvent bool                  `json:"isReadyForEvent"`
}

// ApplyToolCalls merges each tool call's details into its session. A bad
// session id fails that call only, not the batch.
func (s *Service) ApplyToolCalls(ctx context.Context, calls []ToolCall) []ToolCallResult {
	results := make([]ToolCallResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, ToolCallResult{
			ToolCallId: call.Id,
			Result:     encodeOutcome(s.applyToolCall(ctx, call)),
		})
	}
	return results
}

func (s *Service) applyToolCall(ctx context.Context, call ToolCall) toolCallOutcome {
	sessionId, _ := call.Args["sessionId"].(string)
	if sessionId == "" {
		return toolCallOutcome{Ok: false, Error: "Invalid sessionId"}
	}

	var partial session.DetailRecord
	if details, ok := call.Args["userDetails"].(map[string]any); ok {
		partial = session.DetailRecordFromMap(details)
	}

	updated, ready, err := s.sessions.UpdateDetails(ctx, sessionId, partial)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			log.Errorf("tool call %s for unknown session: %s", call.Id, sessionId)
			return toolCallOutcome{Ok: false, Error: "Invalid sessionId", SessionId: sessionId}
		}
		log.Errorf("tool call %s failed for session %s: %v", call.Id, sessionId, err)
		return toolCallOutcome{Ok: false, Error: "Failed to update details", SessionId: sessionId}
	}

	log.Debugf("tool call %s updated session %s, ready=%t", call.Id, sessionId, ready)
	return toolCallOutcome{
		Ok:              true,
		SessionId:       sessionId,
		UserDetails:     &updated.Details,
		IsReadyForEvent: ready,
	}
}

func encodeOutcome(outcome toolCallOutcome) string {
	data, err := json.Marshal(outcome)
	if err != nil {
		log.Errorf("failed to encode tool call result: %v", err)
		return `{"ok":false,"error":"internal error"}`
	}
	return string(data)
}

func parseDurationMinutes(duration string) int {
	trimmed := strings.TrimSpace(duration)
	if trimmed == "" {
		return 0
	}
	minutes, err := strconv.Atoi(trimmed)
	if err != nil || minutes < 0 {
		log.Debugf("ignoring unparseable duration %q", duration)
		return 0
	}
	return minutes
}
