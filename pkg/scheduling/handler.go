package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/voxcal/voxcal/internal/rest"
	"github.com/voxcal/voxcal/pkg/session"
)

// Handler exposes the voice and calendar endpoints.
type Handler struct {
	service  *Service
	sessions session.Service
}

func NewHandler(service *Service, sessions session.Service) *Handler {
	return &Handler{service: service, sessions: sessions}
}

type initSessionRequest struct {
	Timezone string `json:"timezone"`
}

type initSessionResponse struct {
	SessionId string `json:"sessionId"`
	Timezone  string `json:"timezone"`
	Message   string `json:"message"`
}

type processRequest struct {
	SessionId      string `json:"sessionId"`
	UserTranscript string `json:"userTranscript"`
}

type processResponse struct {
	AssistantMessage string               `json:"assistantMessage"`
	UserDetails      session.DetailRecord `json:"userDetails"`
	IsReadyForEvent  bool                 `json:"isReadyForEvent"`
	EventCreated     bool                 `json:"eventCreated"`
	EventId          string               `json:"eventId,omitempty"`
	EventLink        string               `json:"eventLink,omitempty"`
}

type setDetailsRequest struct {
	SessionId   string               `json:"sessionId"`
	UserDetails session.DetailRecord `json:"userDetails"`
}

type setDetailsResponse struct {
	SessionId       string               `json:"sessionId"`
	UserDetails     session.DetailRecord `json:"userDetails"`
	IsReadyForEvent bool                 `json:"isReadyForEvent"`
	Message         string               `json:"message"`
}

type createEventRequest struct {
	SessionId   string                `json:"sessionId"`
	UserDetails *session.DetailRecord `json:"userDetails,omitempty"`
}

type createEventResponse struct {
	Success   bool   `json:"success"`
	EventId   string `json:"eventId,omitempty"`
	EventLink string `json:"eventLink,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

type resetRequest struct {
	SessionId string `json:"sessionId"`
}

type resetResponse struct {
	SessionId string `json:"sessionId"`
	Message   string `json:"message"`
}

type toolCallsResponse struct {
	Results []ToolCallResult `json:"results"`
}

// InitSession handles POST /api/voice/init. An empty body is fine; the
// session falls back to the configured default timezone.
func (h *Handler) InitSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req initSessionRequest
	if r.Body != nil {
		// Ignore decode errors so a bodyless POST still works.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	sess, err := h.sessions.Create(r.Context(), req.Timezone)
	if err != nil {
		log.Errorf("failed to create session: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(initSessionResponse{
		SessionId: sess.Id,
		Timezone:  sess.Timezone,
		Message:   "Session initialized",
	})
}

// ProcessTranscript handles POST /api/voice/process.
func (h *Handler) ProcessTranscript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.ProcessTranscript(r.Context(), req.SessionId, req.UserTranscript)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyTranscript):
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Transcript is required"})
		case errors.Is(err, session.ErrSessionNotFound):
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid session"})
		default:
			log.Errorf("failed to process transcript: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(processResponse{
		AssistantMessage: result.AssistantMessage,
		UserDetails:      result.Details,
		IsReadyForEvent:  result.Ready,
		EventCreated:     result.EventCreated,
		EventId:          result.EventId,
		EventLink:        result.EventLink,
	})
}

// UpdateDetails handles POST /api/voice/update, the voice platform's tool
// webhook. The response is always 200 with per-call results so the platform
// never retries the whole batch.
func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	calls := ParseToolCalls(body)
	if len(calls) == 0 {
		id := "unknown"
		if v, ok := body["toolCallId"].(string); ok && v != "" {
			id = v
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(toolCallsResponse{Results: []ToolCallResult{
			{ToolCallId: id, Result: `{"ok":false,"error":"No toolCalls found"}`},
		}})
		return
	}

	results := h.service.ApplyToolCalls(r.Context(), calls)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toolCallsResponse{Results: results})
}

// SetDetails handles POST /api/voice/set-details, the non-webhook variant
// used by the frontend to push a full record.
func (h *Handler) SetDetails(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req setDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, ready, err := h.sessions.UpdateDetails(r.Context(), req.SessionId, req.UserDetails)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid session"})
			return
		}
		log.Errorf("failed to set details for session %s: %v", req.SessionId, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(setDetailsResponse{
		SessionId:       updated.Id,
		UserDetails:     updated.Details,
		IsReadyForEvent: ready,
		Message:         "Details updated",
	})
}

// CreateEvent handles POST /api/calendar/create, the explicit creation
// trigger.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.CreateEvent(r.Context(), req.SessionId, req.UserDetails)
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid session"})
		case errors.As(err, &validationErr):
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: validationErr.Reason})
		case errors.Is(err, ErrCreationInFlight):
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(createEventResponse{Success: false, Error: "Event creation already in progress"})
		default:
			log.Errorf("failed to create event for session %s: %v", req.SessionId, err)
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(createEventResponse{Success: false, Error: err.Error()})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(createEventResponse{
		Success:   true,
		EventId:   result.EventId,
		EventLink: result.EventLink,
		Message:   result.Message,
	})
}

// Reset handles POST /api/voice/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.service.Reset(r.Context(), req.SessionId)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid session"})
			return
		}
		log.Errorf("failed to reset session %s: %v", req.SessionId, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resetResponse{
		SessionId: sess.Id,
		Message:   "Session reset",
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Voice Scheduling Agent API running"})
}
