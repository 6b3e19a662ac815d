package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"mystrava-sync/internal/config"
	"mystrava-sync/internal/database"
	"mystrava-sync/internal/geocode"
	"mystrava-sync/internal/oauth"
	"mystrava-sync/internal/session"
	"mystrava-sync/internal/strava"
	"mystrava-sync/internal/sync"
)

type fakeRemote struct {
	athlete    *strava.Athlete
	gear       map[string]*strava.GearDetail
	activities []strava.ActivitySummary
	details    map[int64]*strava.ActivityDetail
	zones      map[int64][]strava.ActivityZone
}

func (f *fakeRemote) ListActivities(_ context.Context, _ string, after *time.Time) ([]strava.ActivitySummary, error) {
	var out []strava.ActivitySummary
	for _, a := range f.activities {
		if after == nil || a.StartDateLocal.After(*after) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRemote) GetActivity(_ context.Context, _ string, id int64) (*strava.ActivityDetail, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, &strava.HTTPError{StatusCode: http.StatusNotFound, Body: "not found"}
	}
	return d, nil
}

func (f *fakeRemote) GetActivityZones(_ context.Context, _ string, id int64) ([]strava.ActivityZone, error) {
	z, ok := f.zones[id]
	if !ok {
		return nil, &strava.HTTPError{StatusCode: http.StatusNotFound, Body: "not found"}
	}
	return z, nil
}

func (f *fakeRemote) GetAthlete(_ context.Context, _ string) (*strava.Athlete, error) {
	if f.athlete == nil {
		return nil, &strava.HTTPError{StatusCode: http.StatusUnauthorized, Body: "bad token"}
	}
	return f.athlete, nil
}

func (f *fakeRemote) GetGear(_ context.Context, _, id string) (*strava.GearDetail, error) {
	g, ok := f.gear[id]
	if !ok {
		return nil, &strava.HTTPError{StatusCode: http.StatusNotFound, Body: "not found"}
	}
	return g, nil
}

type fakeEnricher struct{}

func (fakeEnricher) Enrich(_ context.Context, coords *geocode.LatLng) *string {
	if coords == nil {
		return nil
	}
	loc := "Vif (38)"
	return &loc
}

type fakeTokens struct {
	resp  *strava.TokenResponse
	err   error
	calls int
}

func (f *fakeTokens) RefreshToken(_ context.Context, _ string) (*strava.TokenResponse, error) {
	f.calls++
	return f.resp, f.err
}

type fakeExchanger struct {
	resp *strava.TokenResponse
	err  error
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, _ string) (*strava.TokenResponse, error) {
	return f.resp, f.err
}

type testEnv struct {
	server   *Server
	db       *database.DB
	remote   *fakeRemote
	tokens   *fakeTokens
	sessions *session.Manager
	cfg      *config.Config
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	remote := &fakeRemote{
		gear:    map[string]*strava.GearDetail{},
		details: map[int64]*strava.ActivityDetail{},
		zones:   map[int64][]strava.ActivityZone{},
	}
	cfg := &config.Config{
		BaseURL:                 "http://localhost:4201",
		StravaClientID:          "test_client_id",
		TrailElevationThreshold: 200,
		WithPoints:              true,
		WithDescription:         true,
	}

	svc := sync.NewService(db, remote, fakeEnricher{}, sync.Config{
		WithPoints:      cfg.WithPoints,
		WithDescription: cfg.WithDescription,
		TrailThreshold:  cfg.TrailElevationThreshold,
	}, logger)

	athleteJSON, _ := json.Marshal(map[string]any{"id": 12345, "premium": true})
	exchanger := &fakeExchanger{resp: &strava.TokenResponse{
		AccessToken:  "access_abc",
		RefreshToken: "refresh_def",
		ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
		Athlete:      athleteJSON,
	}}

	sessions := session.NewManager("test_secret", false, logger)
	tokens := &fakeTokens{}
	oauthMgr := oauth.NewManager(cfg.StravaClientID, exchanger, logger)

	return &testEnv{
		server:   NewServer(svc, db, sessions, oauthMgr, tokens, cfg, logger),
		db:       db,
		remote:   remote,
		tokens:   tokens,
		sessions: sessions,
		cfg:      cfg,
	}
}

func (e *testEnv) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	err := e.sessions.Issue(rec, &session.AuthContext{
		AthleteID:    12345,
		AccessToken:  "access_abc",
		RefreshToken: "refresh_def",
		ExpiresAt:    time.Now().Add(6 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}
	return rec.Result().Cookies()[0]
}

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest("GET", "/activities", nil)
	rec := httptest.NewRecorder()
	env.server.requireSession(env.server.HandleActivities)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestRequireSessionWhitelist(t *testing.T) {
	env := setupEnv(t)
	env.cfg.AthleteWhitelist = []int64{777}

	req := httptest.NewRequest("GET", "/activities", nil)
	req.AddCookie(env.sessionCookie(t))
	rec := httptest.NewRecorder()
	env.server.requireSession(env.server.HandleActivities)(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
}

func TestRequireSessionRefreshesExpiringToken(t *testing.T) {
	env := setupEnv(t)
	env.tokens.resp = &strava.TokenResponse{
		AccessToken:  "fresh_access",
		RefreshToken: "fresh_refresh",
		ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
	}

	// Session whose access token has already expired
	rec := httptest.NewRecorder()
	if err := env.sessions.Issue(rec, &session.AuthContext{
		AthleteID:    12345,
		AccessToken:  "stale",
		RefreshToken: "refresh_def",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}

	req := httptest.NewRequest("GET", "/activities", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	var seen string
	out := httptest.NewRecorder()
	env.server.requireSession(func(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
		seen = auth.AccessToken
		w.WriteHeader(http.StatusOK)
	})(out, req)

	if out.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", out.Code)
	}
	if env.tokens.calls != 1 {
		t.Errorf("Expected 1 refresh call, got %d", env.tokens.calls)
	}
	if seen != "fresh_access" {
		t.Errorf("Expected handler to see the fresh token, got %q", seen)
	}
	// Rotated session re-issued on the response
	if len(out.Result().Cookies()) == 0 {
		t.Error("Expected a re-issued session cookie")
	}
}

func TestRequireSessionRefreshFailure(t *testing.T) {
	env := setupEnv(t)
	env.tokens.err = errors.New("refresh rejected")

	rec := httptest.NewRecorder()
	if err := env.sessions.Issue(rec, &session.AuthContext{
		AthleteID:    12345,
		AccessToken:  "stale",
		RefreshToken: "refresh_def",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}

	req := httptest.NewRequest("GET", "/activities", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	out := httptest.NewRecorder()
	env.server.requireSession(env.server.HandleActivities)(out, req)

	if out.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after failed refresh, got %d", out.Code)
	}
}

func TestConnectAndAuthorizedFlow(t *testing.T) {
	env := setupEnv(t)

	// /connect redirects to the consent page with a state parameter
	req := httptest.NewRequest("GET", "/connect", nil)
	rec := httptest.NewRecorder()
	env.server.HandleConnect(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("Failed to parse redirect: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("Expected a state parameter in the consent URL")
	}

	// The callback establishes the session
	req = httptest.NewRequest("GET", "/authorized?code=auth_code&state="+url.QueryEscape(state), nil)
	rec = httptest.NewRecorder()
	env.server.HandleAuthorized(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected a session cookie, got %d cookies", len(cookies))
	}

	// The session works against an authenticated endpoint
	req = httptest.NewRequest("GET", "/athlete", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	env.server.requireSession(env.server.HandleAthlete)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var athlete struct {
		AthleteID int64 `json:"athlete_id"`
		Premium   bool  `json:"premium"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&athlete); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if athlete.AthleteID != 12345 || !athlete.Premium {
		t.Errorf("Unexpected athlete payload: %+v", athlete)
	}
}

func TestAuthorizedRejectsForgedState(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest("GET", "/authorized?code=auth_code&state=forged", nil)
	rec := httptest.NewRecorder()
	env.server.HandleAuthorized(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestDisconnect(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest("POST", "/disconnect", nil)
	req.AddCookie(env.sessionCookie(t))
	rec := httptest.NewRecorder()
	env.server.HandleDisconnect(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Error("Expected an expiring session cookie")
	}
}

func TestHealth(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	env.server.HandleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}
