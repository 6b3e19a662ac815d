package sync

import (
	"context"
	"fmt"

	"mystrava-sync/internal/taxonomy"
)

// FixSportTypes backfills the refined sport type on activities that predate
// it. Only records whose sport_type is still unset are touched; a set value
// is never rewritten. Rides derive their sport type from the linked gear's
// category, runs above the trail threshold become trail runs, and anything
// the rules leave undecided falls back to the remote's own reported sport
// type.
func (s *Service) FixSportTypes(ctx context.Context, athleteID int64, accessToken string, trailThreshold float64) error {
	unlock := s.lockAthlete(athleteID)
	defer unlock()

	remote, err := s.remote.ListActivities(ctx, accessToken, nil)
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}

	fixed := 0
	for i := range remote {
		sum := &remote[i]

		local, err := s.db.GetActivity(sum.ID)
		if err != nil {
			return err
		}
		if local == nil || local.SportType != nil {
			continue
		}

		var sportType string
		switch sum.Type {
		case taxonomy.Ride:
			if local.GearID != nil {
				gear, err := s.db.GetGear(*local.GearID)
				if err != nil {
					return err
				}
				if gear != nil {
					sportType = taxonomy.SportTypeForCategory(gear.Category)
				}
			}
		case taxonomy.Run:
			if local.Elevation > trailThreshold {
				sportType = taxonomy.SportTrailRun
			}
		}

		// The rules above deliberately leave some records undecided (an
		// unmapped gear category, a flat run). Fall back to the remote's
		// own classification, which may itself be absent.
		if sportType == "" && sum.SportType != nil {
			sportType = *sum.SportType
		}
		if sportType == "" {
			continue
		}

		local.SportType = &sportType
		if err := s.db.UpdateActivity(local); err != nil {
			return err
		}
		fixed++
	}

	s.logger.Info("sport types backfilled", "athlete_id", athleteID, "scanned", len(remote), "fixed", fixed)
	return nil
}
