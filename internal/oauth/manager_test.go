package oauth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"mystrava-sync/internal/strava"
)

type fakeExchanger struct {
	resp *strava.TokenResponse
	err  error
	code string
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, code string) (*strava.TokenResponse, error) {
	f.code = code
	return f.resp, f.err
}

func testManager(ex Exchanger) *Manager {
	return NewManager("test_client_id", ex, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("Failed to parse auth URL: %v", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		t.Fatal("Expected a state parameter")
	}
	return state
}

func TestGenerateAuthURL(t *testing.T) {
	m := testManager(&fakeExchanger{})

	authURL, err := m.GenerateAuthURL("https://example.com/authorized")
	if err != nil {
		t.Fatalf("Failed to generate auth URL: %v", err)
	}

	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("Failed to parse auth URL: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "test_client_id" {
		t.Errorf("Unexpected client_id: %s", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://example.com/authorized" {
		t.Errorf("Unexpected redirect_uri: %s", q.Get("redirect_uri"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("Unexpected response_type: %s", q.Get("response_type"))
	}

	// Two URLs never share a state
	other, err := m.GenerateAuthURL("https://example.com/authorized")
	if err != nil {
		t.Fatalf("Failed to generate auth URL: %v", err)
	}
	if stateFrom(t, authURL) == stateFrom(t, other) {
		t.Error("Expected unique states per URL")
	}
}

func TestHandleCallback(t *testing.T) {
	athleteJSON, _ := json.Marshal(map[string]any{
		"id":             12345,
		"profile_medium": "https://example.com/pic.jpg",
		"premium":        true,
	})
	ex := &fakeExchanger{resp: &strava.TokenResponse{
		AccessToken:  "access_abc",
		RefreshToken: "refresh_def",
		ExpiresAt:    1735689600,
		Athlete:      athleteJSON,
	}}
	m := testManager(ex)

	authURL, err := m.GenerateAuthURL("https://example.com/authorized")
	if err != nil {
		t.Fatalf("Failed to generate auth URL: %v", err)
	}
	state := stateFrom(t, authURL)

	auth, err := m.HandleCallback(context.Background(), "auth_code_123", state)
	if err != nil {
		t.Fatalf("Failed to handle callback: %v", err)
	}
	if ex.code != "auth_code_123" {
		t.Errorf("Expected code to be forwarded, got %q", ex.code)
	}
	if auth.AthleteID != 12345 || !auth.Premium {
		t.Errorf("Unexpected auth context: %+v", auth)
	}
	if auth.AccessToken != "access_abc" || auth.RefreshToken != "refresh_def" {
		t.Errorf("Unexpected tokens: %+v", auth)
	}
	if auth.ExpiresAt.Unix() != 1735689600 {
		t.Errorf("Unexpected expiry: %v", auth.ExpiresAt)
	}

	// States are one-time use
	if _, err := m.HandleCallback(context.Background(), "auth_code_123", state); err == nil {
		t.Error("Expected reused state to be rejected")
	}
}

func TestHandleCallbackUnknownState(t *testing.T) {
	m := testManager(&fakeExchanger{})

	if _, err := m.HandleCallback(context.Background(), "code", "forged_state"); err == nil {
		t.Error("Expected unknown state to be rejected")
	}
}
