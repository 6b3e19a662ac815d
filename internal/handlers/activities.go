package handlers

import (
	"net/http"
	"strconv"
	"time"

	"mystrava-sync/internal/metrics"
	"mystrava-sync/internal/session"
	"mystrava-sync/internal/sync"
)

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// HandleActivities returns the athlete's mirrored activities, filtered by
// the query parameters before/after (YYYY-MM-DD), name and type.
func (s *Server) HandleActivities(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()

	before, err := parseDate(q.Get("before"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid before date, expected YYYY-MM-DD")
		return
	}
	after, err := parseDate(q.Get("after"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid after date, expected YYYY-MM-DD")
		return
	}

	rows, err := s.svc.QueryActivities(auth.AthleteID, sync.Query{
		Before:       before,
		After:        after,
		NameContains: q.Get("name"),
		ActivityType: q.Get("type"),
	})
	if err != nil {
		s.logger.Error("failed to query activities", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to query activities")
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

// HandleGear returns the athlete's mirrored gear
func (s *Server) HandleGear(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	gear, err := s.svc.ListGear(auth.AthleteID)
	if err != nil {
		s.logger.Error("failed to list gear", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list gear")
		return
	}

	writeJSON(w, http.StatusOK, gear)
}

// HandleDeleteActivity removes an activity from the mirror. A missing or
// absent id is a no-op.
func (s *Server) HandleDeleteActivity(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := r.URL.Query().Get("id")
	if raw == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	if err := s.svc.DeleteActivity(auth.AthleteID, id); err != nil {
		s.logger.Error("failed to delete activity", "activity_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete activity")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// observeSync records the outcome of a sync operation
func observeSync(op string, start time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}
	metrics.SyncRunsTotal.WithLabelValues(op, result).Inc()
	metrics.SyncDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// HandleSyncActivities performs an incremental sync and returns the touched
// activities
func (s *Server) HandleSyncActivities(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	rows, err := s.svc.SyncNew(r.Context(), auth.AthleteID, auth.AccessToken)
	observeSync(metrics.SyncOpIncremental, start, err)
	if err != nil {
		s.writeRemoteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

// HandleSyncRebuild resyncs the athlete's entire remote history
func (s *Server) HandleSyncRebuild(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	err := s.svc.RebuildAll(r.Context(), auth.AthleteID, auth.AccessToken)
	observeSync(metrics.SyncOpRebuild, start, err)
	if err != nil {
		s.writeRemoteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSyncActivity resyncs a single activity. An activity deleted
// upstream yields an empty object, not an error.
func (s *Server) HandleSyncActivity(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	start := time.Now()
	row, err := s.svc.RefreshOne(r.Context(), auth.AthleteID, auth.AccessToken, id)
	observeSync(metrics.SyncOpSingle, start, err)
	if err != nil {
		s.writeRemoteError(w, err)
		return
	}

	if row == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// HandleSyncGear reconciles the athlete's remote gear and returns the
// mirrored list
func (s *Server) HandleSyncGear(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	gear, err := s.svc.ReconcileEquipment(r.Context(), auth.AthleteID, auth.AccessToken)
	observeSync(metrics.SyncOpEquipment, start, err)
	if err != nil {
		s.writeRemoteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, gear)
}

// HandleSyncSportTypes backfills missing sport types across the athlete's
// history. An optional threshold query parameter overrides the configured
// trail elevation threshold.
func (s *Server) HandleSyncSportTypes(w http.ResponseWriter, r *http.Request, auth *session.AuthContext) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	threshold := s.cfg.TrailElevationThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		threshold = v
	}

	start := time.Now()
	err := s.svc.FixSportTypes(r.Context(), auth.AthleteID, auth.AccessToken, threshold)
	observeSync(metrics.SyncOpSportTypes, start, err)
	if err != nil {
		s.writeRemoteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
