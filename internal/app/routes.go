package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Voice session flow
	r.HandleFunc("/api/voice/init", deps.SchedulingHandler.InitSession).Methods("POST")
	r.HandleFunc("/api/voice/process", deps.SchedulingHandler.ProcessTranscript).Methods("POST")
	r.HandleFunc("/api/voice/update", deps.SchedulingHandler.UpdateDetails).Methods("POST")
	r.HandleFunc("/api/voice/set-details", deps.SchedulingHandler.SetDetails).Methods("POST")
	r.HandleFunc("/api/voice/reset", deps.SchedulingHandler.Reset).Methods("POST")

	// Calendar
	r.HandleFunc("/api/calendar/create", deps.SchedulingHandler.CreateEvent).Methods("POST")

	// Google OAuth
	r.HandleFunc("/auth/url", deps.AuthHandler.GetAuthUrl).Methods("GET")
	r.HandleFunc("/auth/callback", deps.AuthHandler.Callback).Methods("POST")
	r.HandleFunc("/auth/callback", deps.AuthHandler.CallbackQuery).Methods("GET")
	r.HandleFunc("/oauth/callback", deps.AuthHandler.PopupCallback).Methods("GET")

	// Service
	r.HandleFunc("/health", deps.SchedulingHandler.Health).Methods("GET")
	r.HandleFunc("/", deps.SchedulingHandler.Root).Methods("GET")
}
