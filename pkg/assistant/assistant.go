package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/voxcal/voxcal/internal/config"
	"github.com/voxcal/voxcal/pkg/session"
	"google.golang.org/genai"
)

// fallbackReply is spoken when the model is unreachable; the conversation can
// always continue with a repeat.
const fallbackReply = "I had trouble processing that. Could you please repeat?"

// Responder turns a user utterance plus the collected details into the next
// assistant line.
type Responder interface {
	Reply(ctx context.Context, details session.DetailRecord, transcript string) (string, error)
}

// GeminiResponder generates replies with the Gemini API.
type GeminiResponder struct {
	client *genai.Client
	model  string
}

func NewGeminiResponder(ctx context.Context, cfg config.Gemini) (*GeminiResponder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.ApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiResponder{client: client, model: cfg.Model}, nil
}

func (r *GeminiResponder) Reply(ctx context.Context, details session.DetailRecord, transcript string) (string, error) {
	resp, err := r.client.Models.GenerateContent(ctx, r.model,
		genai.Text(transcript),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt(details), genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.7),
			MaxOutputTokens:   120,
		})
	if err != nil {
		log.Errorf("Gemini request failed: %v", err)
		return fallbackReply, nil
	}
	reply := resp.Text()
	if reply == "" {
		return fallbackReply, nil
	}
	return reply, nil
}

// systemPrompt instructs the model to collect one field at a time and to
// announce readiness without ever claiming the event was created.
func systemPrompt(details session.DetailRecord) string {
	collected, _ := json.Marshal(details)
	return fmt.Sprintf(`You are a helpful voice assistant for scheduling meetings.
Your job is to collect the user's name, preferred date, time, duration (in minutes), and optional meeting title.
Current collected details: %s

Rules:
- Ask for missing info conversationally (1 question at a time).
- Confirm details BEFORE any "ready" message.
- When you have name, date, and time (duration optional), say: "Perfect! I'm ready to create your event now."
- Never say the event is created/confirmed unless the system explicitly tells you "Calendar event created successfully".
Keep responses brief (1-2 sentences).`, collected)
}

// StaticResponder returns a fixed reply. Used in tests and keyless local runs.
type StaticResponder struct {
	Message string
}

func (r *StaticResponder) Reply(_ context.Context, _ session.DetailRecord, _ string) (string, error) {
	return r.Message, nil
}
