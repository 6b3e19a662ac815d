// Package oauth drives the authorization-code flow against the remote
// fitness service and turns its token response into a session auth context.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"mystrava-sync/internal/session"
	"mystrava-sync/internal/strava"
)

const (
	authorizationURL = "https://www.strava.com/oauth/authorize"
	scope            = "activity:read_all,profile:read_all" // Private activities and gear
)

// Exchanger is the token-exchange slice of the remote API client
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*strava.TokenResponse, error)
}

// Manager handles the OAuth 2.0 flow
type Manager struct {
	clientID string
	client   Exchanger
	logger   *slog.Logger
	states   *stateStore // CSRF protection
}

// stateStore tracks valid OAuth states for CSRF protection
type stateStore struct {
	mu     sync.RWMutex
	states map[string]time.Time
}

// NewManager creates a new OAuth manager
func NewManager(clientID string, client Exchanger, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	mgr := &Manager{
		clientID: clientID,
		client:   client,
		logger:   logger,
		states: &stateStore{
			states: make(map[string]time.Time),
		},
	}

	// Background cleanup of expired states
	go mgr.cleanupStates()

	return mgr
}

// GenerateAuthURL generates an authorization URL with CSRF protection
func (m *Manager) GenerateAuthURL(redirectURI string) (string, error) {
	state, err := generateRandomState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	// States expire after 10 minutes
	m.states.mu.Lock()
	m.states.states[state] = time.Now().Add(10 * time.Minute)
	m.states.mu.Unlock()

	params := url.Values{
		"client_id":     {m.clientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {scope},
		"state":         {state},
	}

	return fmt.Sprintf("%s?%s", authorizationURL, params.Encode()), nil
}

// HandleCallback validates the CSRF state, exchanges the code and returns
// the resulting auth context
func (m *Manager) HandleCallback(ctx context.Context, code, state string) (*session.AuthContext, error) {
	if !m.validateState(state) {
		return nil, fmt.Errorf("invalid or expired state")
	}

	tokenResp, err := m.client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	var athlete struct {
		ID      int64  `json:"id"`
		Profile string `json:"profile_medium"`
		Premium bool   `json:"premium"`
	}
	if err := json.Unmarshal(tokenResp.Athlete, &athlete); err != nil {
		return nil, fmt.Errorf("failed to parse athlete data: %w", err)
	}
	if athlete.ID == 0 {
		return nil, fmt.Errorf("token response carried no athlete id")
	}

	m.logger.Info("athlete authorized", "athlete_id", athlete.ID, "premium", athlete.Premium)

	return &session.AuthContext{
		AthleteID:    athlete.ID,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    time.Unix(tokenResp.ExpiresAt, 0),
		Premium:      athlete.Premium,
		Profile:      athlete.Profile,
	}, nil
}

// validateState checks if a state is valid and removes it (one-time use)
func (m *Manager) validateState(state string) bool {
	m.states.mu.Lock()
	defer m.states.mu.Unlock()

	expiry, exists := m.states.states[state]
	if !exists {
		return false
	}

	if time.Now().After(expiry) {
		delete(m.states.states, state)
		return false
	}

	delete(m.states.states, state)
	return true
}

// cleanupStates removes expired states every minute
func (m *Manager) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.states.mu.Lock()
		now := time.Now()
		for state, expiry := range m.states.states {
			if now.After(expiry) {
				delete(m.states.states, state)
			}
		}
		m.states.mu.Unlock()
	}
}

// generateRandomState generates a cryptographically secure random state
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
