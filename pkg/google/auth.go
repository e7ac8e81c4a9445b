package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/voxcal/voxcal/internal/config"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

var ErrNoServiceAccount = errors.New("no service account configuration found")

// Auth holds the OAuth client configuration and service-account fallback for
// the calendar integration. Per-session user tokens take priority; the
// service account covers sessions that never went through the consent flow.
type Auth struct {
	cfg         config.Google
	oauthConfig *oauth2.Config
}

func NewAuth(cfg config.Google) *Auth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  cfg.RedirectUrl,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	return &Auth{cfg: cfg, oauthConfig: oauthConfig}
}

// AuthURL builds the consent URL the frontend opens in a popup.
func (a *Auth) AuthURL() string {
	stateNonce := uuid.New().String()
	return a.oauthConfig.AuthCodeURL(stateNonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens.
func (a *Auth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange code for token: %w", err)
	}
	return token, nil
}

// TokenSource wraps a stored per-session token so expired access tokens are
// refreshed transparently.
func (a *Auth) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return a.oauthConfig.TokenSource(ctx, token)
}

// ServiceAccountTokenSource builds credentials from the first configured
// source: a key file, plain JSON, or base64-encoded JSON (container friendly).
func (a *Auth) ServiceAccountTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	data, err := a.serviceAccountJSON()
	if err != nil {
		return nil, err
	}
	conf, err := googleoauth.JWTConfigFromJSON(data, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("invalid service account key: %w", err)
	}
	return conf.TokenSource(ctx), nil
}

func (a *Auth) serviceAccountJSON() ([]byte, error) {
	if a.cfg.ServiceAccountFile != "" {
		data, err := os.ReadFile(a.cfg.ServiceAccountFile)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read service account file: %w", err)
		}
		log.Debugf("service account file not found at %s, trying inline configuration", a.cfg.ServiceAccountFile)
	}
	if a.cfg.ServiceAccountJson != "" {
		return []byte(a.cfg.ServiceAccountJson), nil
	}
	if a.cfg.ServiceAccountJsonB64 != "" {
		data, err := base64.StdEncoding.DecodeString(a.cfg.ServiceAccountJsonB64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 service account key: %w", err)
		}
		return data, nil
	}
	return nil, ErrNoServiceAccount
}
