package sync

import (
	"context"
	"fmt"

	"mystrava-sync/internal/strava"
)

// syncBatch applies the two passes to a set of summaries: every summary is
// pushed before any detail is fetched, because the detail pass requires the
// row to exist and interleaving would multiply remote round-trips under
// partial failure. Detail fetches run serially to respect upstream rate
// limits.
func (s *Service) syncBatch(ctx context.Context, athleteID int64, accessToken string, summaries []strava.ActivitySummary) error {
	for i := range summaries {
		if err := s.PushActivity(ctx, athleteID, &summaries[i]); err != nil {
			return err
		}
	}

	for i := range summaries {
		detail, err := s.remote.GetActivity(ctx, accessToken, summaries[i].ID)
		if err != nil {
			// Deleted upstream between listing and detail fetch; the
			// summary row stays until the remote listing stops reporting it
			if strava.IsNotFound(err) {
				s.logger.Warn("activity vanished before detail fetch", "activity_id", summaries[i].ID)
				continue
			}
			return fmt.Errorf("failed to fetch activity detail %d: %w", summaries[i].ID, err)
		}
		if err := s.UpdateActivityDetails(ctx, accessToken, detail); err != nil {
			return err
		}
	}

	return nil
}

// SyncNew performs an incremental sync: everything the remote reports after
// the most recent local activity date. Returns the projections of the
// touched activities.
func (s *Service) SyncNew(ctx context.Context, athleteID int64, accessToken string) ([]ActivityJSON, error) {
	unlock := s.lockAthlete(athleteID)
	defer unlock()

	after, err := s.db.LatestActivityDate(athleteID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.remote.ListActivities(ctx, accessToken, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	if err := s.syncBatch(ctx, athleteID, accessToken, summaries); err != nil {
		return nil, err
	}

	s.logger.Info("incremental sync complete", "athlete_id", athleteID, "activities", len(summaries))

	if len(summaries) == 0 {
		return []ActivityJSON{}, nil
	}
	ids := make([]int64, len(summaries))
	for i := range summaries {
		ids[i] = summaries[i].ID
	}
	return s.QueryActivities(athleteID, Query{IDs: ids})
}

// RebuildAll resyncs the athlete's entire remote history, for recovery from
// local-store loss or to pick up historical activities.
func (s *Service) RebuildAll(ctx context.Context, athleteID int64, accessToken string) error {
	unlock := s.lockAthlete(athleteID)
	defer unlock()

	summaries, err := s.remote.ListActivities(ctx, accessToken, nil)
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}

	if err := s.syncBatch(ctx, athleteID, accessToken, summaries); err != nil {
		return err
	}

	s.logger.Info("full rebuild complete", "athlete_id", athleteID, "activities", len(summaries))
	return nil
}

// RefreshOne resyncs a single activity and returns its projection. An
// activity deleted upstream is a recoverable condition: the result is nil
// with no error.
func (s *Service) RefreshOne(ctx context.Context, athleteID int64, accessToken string, activityID int64) (*ActivityJSON, error) {
	unlock := s.lockAthlete(athleteID)
	defer unlock()

	detail, err := s.remote.GetActivity(ctx, accessToken, activityID)
	if err != nil {
		if strava.IsNotFound(err) {
			s.logger.Info("activity no longer exists upstream", "activity_id", activityID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch activity %d: %w", activityID, err)
	}

	if err := s.PushActivity(ctx, athleteID, &detail.ActivitySummary); err != nil {
		return nil, err
	}
	if err := s.UpdateActivityDetails(ctx, accessToken, detail); err != nil {
		return nil, err
	}

	rows, err := s.QueryActivities(athleteID, Query{IDs: []int64{activityID}})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
