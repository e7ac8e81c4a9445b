package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/voxcal/voxcal/internal/rest"
	"github.com/voxcal/voxcal/pkg/session"
)

// AuthHandler exposes the OAuth consent flow: URL generation, the
// code-for-tokens exchange bound to a session, and the popup landing pages.
type AuthHandler struct {
	auth     *Auth
	sessions session.Service
}

func NewAuthHandler(auth *Auth, sessions session.Service) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

type authUrlResponse struct {
	AuthUrl string `json:"authUrl"`
}

type authCallbackRequest struct {
	SessionId string `json:"sessionId"`
	Code      string `json:"code"`
}

type authCallbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// GetAuthUrl handles GET /auth/url.
func (h *AuthHandler) GetAuthUrl(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(authUrlResponse{AuthUrl: h.auth.AuthURL()}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Callback handles POST /auth/callback: exchanges the code and stores the
// tokens on the session.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req authCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.sessions.Get(r.Context(), req.SessionId); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			log.Debugf("auth callback for unknown session: %s", req.SessionId)
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid session"})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	token, err := h.auth.Exchange(r.Context(), req.Code)
	if err != nil {
		log.Errorf("auth callback error: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Authentication failed"})
		return
	}

	if err := h.sessions.StoreTokens(r.Context(), req.SessionId, token); err != nil {
		log.Errorf("failed to store tokens for session %s: %v", req.SessionId, err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Failed to store authentication"})
		return
	}

	log.Infof("session %s authenticated successfully", req.SessionId)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(authCallbackResponse{Success: true, Message: "Authentication successful"})
}

// CallbackQuery handles GET /auth/callback, Google's redirect with query
// params. The frontend/CLI is expected to follow up with the POST exchange.
func (h *AuthHandler) CallbackQuery(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: errParam, Details: "Authentication failed"})
		return
	}
	code := query.Get("code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "missing_code", Details: "No authorization code received"})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"state":   query.Get("state"),
		"message": "Auth code received. Use POST /auth/callback to exchange for tokens.",
	})
}

// PopupCallback handles GET /oauth/callback: the HTML landing page for the
// consent popup, which posts the code back to the opener window.
func (h *AuthHandler) PopupCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, popupFailurePage, "Error: "+errParam)
		return
	}
	code := query.Get("code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, popupFailurePage, "No authorization code received.")
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, popupSuccessPage, code)
}

const popupSuccessPage = `<html>
<body style="font-family: sans-serif; padding: 50px; text-align: center;">
<h1>&#10003; Authentication Successful</h1>
<p>Your Google Calendar is now connected.</p>
<p>You can close this window and return to the app.</p>
<script>
window.opener.postMessage({ type: "google_auth_code", code: %q }, "*");
setTimeout(() => window.close(), 2000);
</script>
</body>
</html>`

const popupFailurePage = `<html>
<body style="font-family: sans-serif; padding: 50px; text-align: center;">
<h1>Authentication Failed</h1>
<p>%s</p>
<p>You can close this window.</p>
<script>window.close();</script>
</body>
</html>`
