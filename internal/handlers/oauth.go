package handlers

import (
	"net/http"

	"mystrava-sync/internal/session"
)

// HandleConnect starts the authorization flow by redirecting to the remote
// consent page
func (s *Server) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	authURL, err := s.oauth.GenerateAuthURL(s.cfg.BaseURL + "/authorized")
	if err != nil {
		s.logger.Error("failed to generate auth URL", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start authorization")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleAuthorized is the OAuth redirect target: it exchanges the code and
// establishes the session
func (s *Server) HandleAuthorized(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	if errMsg := q.Get("error"); errMsg != "" {
		s.logger.Warn("authorization denied", "error", errMsg)
		writeError(w, http.StatusBadRequest, "authorization denied")
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code parameter")
		return
	}

	auth, err := s.oauth.HandleCallback(r.Context(), code, q.Get("state"))
	if err != nil {
		s.logger.Error("authorization callback failed", "error", err)
		writeError(w, http.StatusBadRequest, "authorization failed")
		return
	}

	if !s.cfg.AthleteAllowed(auth.AthleteID) {
		s.logger.Warn("athlete not in whitelist", "athlete_id", auth.AthleteID)
		writeError(w, http.StatusForbidden, "athlete not allowed")
		return
	}

	if err := s.sessions.Issue(w, auth); err != nil {
		s.logger.Error("failed to issue session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleDisconnect drops the session
func (s *Server) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleAthlete returns the connected athlete's identity
func (s *Server) HandleAthlete(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"athlete_id": auth.AthleteID,
		"profile":    auth.Profile,
		"premium":    auth.Premium,
	})
}
