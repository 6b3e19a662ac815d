// Package handlers is the HTTP serving layer: session-scoped endpoints over
// the sync service.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"mystrava-sync/internal/config"
	"mystrava-sync/internal/database"
	"mystrava-sync/internal/oauth"
	"mystrava-sync/internal/session"
	"mystrava-sync/internal/strava"
	"mystrava-sync/internal/sync"
)

// TokenRefresher is the token-refresh slice of the remote API client
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*strava.TokenResponse, error)
}

// Server holds the handler dependencies
type Server struct {
	svc      *sync.Service
	db       *database.DB
	sessions *session.Manager
	oauth    *oauth.Manager
	tokens   TokenRefresher
	cfg      *config.Config
	logger   *slog.Logger
}

// NewServer creates the serving layer
func NewServer(svc *sync.Service, db *database.DB, sessions *session.Manager, oauthMgr *oauth.Manager, tokens TokenRefresher, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:      svc,
		db:       db,
		sessions: sessions,
		oauth:    oauthMgr,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeRemoteError maps a remote API failure onto our response. Expired
// authorization means the athlete has to reconnect; everything else that
// escaped the retry loop is a gateway problem.
func (s *Server) writeRemoteError(w http.ResponseWriter, err error) {
	s.logger.Error("remote API failure", "error", err)
	switch {
	case strava.IsUnauthorized(err):
		s.sessions.Clear(w)
		writeError(w, http.StatusUnauthorized, "authorization expired, reconnect required")
	case strava.IsTooManyRequests(err):
		writeError(w, http.StatusServiceUnavailable, "remote API rate limited")
	default:
		writeError(w, http.StatusBadGateway, "remote API unavailable")
	}
}

// authedHandler is a handler that runs with a verified session
type authedHandler func(w http.ResponseWriter, r *http.Request, auth *session.AuthContext)

// Authed wraps a session-scoped handler for mux registration
func (s *Server) Authed(next authedHandler) http.HandlerFunc {
	return s.requireSession(next)
}

// requireSession verifies the session cookie, enforces the athlete
// whitelist, and refreshes the access token (re-issuing the cookie) when it
// is about to expire.
func (s *Server) requireSession(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, err := s.sessions.FromRequest(r)
		if err != nil {
			if err != session.ErrNoSession {
				s.sessions.Clear(w)
			}
			writeError(w, http.StatusUnauthorized, "not connected")
			return
		}

		if !s.cfg.AthleteAllowed(auth.AthleteID) {
			writeError(w, http.StatusForbidden, "athlete not allowed")
			return
		}

		if auth.NeedsRefresh() {
			refreshed, err := s.refreshAuth(r.Context(), auth)
			if err != nil {
				s.logger.Warn("token refresh failed", "athlete_id", auth.AthleteID, "error", err)
				s.sessions.Clear(w)
				writeError(w, http.StatusUnauthorized, "authorization expired, reconnect required")
				return
			}
			auth = refreshed
			if err := s.sessions.Issue(w, auth); err != nil {
				writeError(w, http.StatusInternalServerError, "failed to issue session")
				return
			}
		}

		next(w, r, auth)
	}
}

func (s *Server) refreshAuth(ctx context.Context, auth *session.AuthContext) (*session.AuthContext, error) {
	resp, err := s.tokens.RefreshToken(ctx, auth.RefreshToken)
	if err != nil {
		return nil, err
	}

	out := *auth
	out.AccessToken = resp.AccessToken
	out.RefreshToken = resp.RefreshToken
	out.ExpiresAt = time.Unix(resp.ExpiresAt, 0)

	s.logger.Info("access token refreshed", "athlete_id", auth.AthleteID)
	return &out, nil
}
