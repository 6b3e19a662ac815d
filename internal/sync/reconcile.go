package sync

import (
	"context"
	"fmt"

	"mystrava-sync/internal/database"
	"mystrava-sync/internal/geocode"
	"mystrava-sync/internal/metrics"
	"mystrava-sync/internal/strava"
	"mystrava-sync/internal/units"
)

func startCoords(sum *strava.ActivitySummary) *geocode.LatLng {
	if len(sum.StartLatLng) != 2 {
		return nil
	}
	return &geocode.LatLng{Lat: sum.StartLatLng[0], Lng: sum.StartLatLng[1]}
}

// PushActivity applies a summary payload to the local mirror. An existing
// record is updated in place; measures the remote omitted keep their stored
// values, and location is only filled in when currently empty. A new record
// is inserted with normalized measures and zeroed effort fields, which the
// detail pass fills in later.
func (s *Service) PushActivity(ctx context.Context, athleteID int64, sum *strava.ActivitySummary) error {
	local, err := s.db.GetActivity(sum.ID)
	if err != nil {
		return err
	}

	if local != nil {
		local.Name = sum.Name
		local.GearID = sum.GearID
		local.Commute = sum.Commute
		local.Type = sum.Type
		local.SportType = sum.SportType
		local.Date = sum.StartDateLocal
		local.MovingTime = sum.MovingTime
		local.ElapsedTime = sum.ElapsedTime
		if sum.TotalElevationGain != nil {
			local.Elevation = units.Meters(sum.TotalElevationGain)
		}
		if sum.AverageSpeed != nil {
			local.AverageSpeed = units.KilometersPerHour(sum.AverageSpeed)
		}
		if sum.Distance != nil {
			local.Distance = units.Kilometers(sum.Distance)
		}
		if local.Location == nil || *local.Location == "" {
			local.Location = s.enricher.Enrich(ctx, startCoords(sum))
		}
		if err := s.db.UpdateActivity(local); err != nil {
			return fmt.Errorf("failed to update activity %d: %w", sum.ID, err)
		}
		metrics.ActivitiesSyncedTotal.Inc()
		return nil
	}

	a := &database.Activity{
		ID:           sum.ID,
		Athlete:      athleteID,
		Name:         sum.Name,
		Location:     s.enricher.Enrich(ctx, startCoords(sum)),
		Date:         sum.StartDateLocal,
		MovingTime:   sum.MovingTime,
		ElapsedTime:  sum.ElapsedTime,
		Distance:     units.Kilometers(sum.Distance),
		Elevation:    units.Meters(sum.TotalElevationGain),
		AverageSpeed: units.KilometersPerHour(sum.AverageSpeed),
		Type:         sum.Type,
		SportType:    sum.SportType,
		GearID:       sum.GearID,
		Commute:      sum.Commute,
	}
	if err := s.db.CreateActivity(a); err != nil {
		return fmt.Errorf("failed to insert activity %d: %w", sum.ID, err)
	}
	metrics.ActivitiesSyncedTotal.Inc()

	s.logger.Info("activity created", "activity_id", sum.ID, "athlete_id", athleteID, "type", sum.Type)
	return nil
}

// UpdateActivityDetails applies the fields only the detail payload carries.
// A missing local record is a no-op; the summary pass is responsible for
// creating rows.
func (s *Service) UpdateActivityDetails(ctx context.Context, accessToken string, detail *strava.ActivityDetail) error {
	local, err := s.db.GetActivity(detail.ID)
	if err != nil {
		return err
	}
	if local == nil {
		s.logger.Warn("detail update for unknown activity", "activity_id", detail.ID)
		return nil
	}

	// Unlike the measures below, description mirrors the remote exactly, so
	// clearing it upstream clears it here too
	if s.cfg.WithDescription {
		local.Description = detail.Description
	}
	if detail.SufferScore != nil {
		local.SufferScore = int64(*detail.SufferScore)
	}
	if detail.AverageHeartrate != nil {
		local.AverageHeartrate = *detail.AverageHeartrate
	}
	if detail.MaxHeartrate != nil {
		local.MaxHeartrate = int64(*detail.MaxHeartrate)
	}
	if detail.Calories != nil {
		local.Calories = *detail.Calories
	}

	// red_points is only recomputed for activities that have a suffer score
	// but were never scored. A legitimately-zero score is indistinguishable
	// from "never scored" here; that ambiguity is inherited from the scoring
	// model.
	if s.cfg.WithPoints && local.RedPoints == 0 && local.SufferScore > 0 {
		local.RedPoints = s.heartRatePoints(ctx, accessToken, detail.ID)
	}

	if err := s.db.UpdateActivity(local); err != nil {
		return fmt.Errorf("failed to update activity details %d: %w", detail.ID, err)
	}
	return nil
}

// heartRatePoints fetches the activity's zone summary and returns the heart
// rate zone's points. Absent or unavailable zones resolve to 0 rather than
// failing the sync pass.
func (s *Service) heartRatePoints(ctx context.Context, accessToken string, activityID int64) int64 {
	zones, err := s.remote.GetActivityZones(ctx, accessToken, activityID)
	if err != nil {
		if !strava.IsNotFound(err) {
			s.logger.Warn("failed to fetch activity zones", "activity_id", activityID, "error", err)
		}
		return 0
	}

	for _, z := range zones {
		if z.Type == "heartrate" {
			return int64(z.Points)
		}
	}
	return 0
}

// DeleteActivity removes an athlete's activity from the mirror. A missing
// id, or an id belonging to a different athlete, is a silent no-op.
func (s *Service) DeleteActivity(athleteID, activityID int64) error {
	local, err := s.db.GetActivity(activityID)
	if err != nil {
		return err
	}
	if local == nil || local.Athlete != athleteID {
		return nil
	}

	if _, err := s.db.DeleteActivity(activityID); err != nil {
		return err
	}
	s.logger.Info("activity deleted", "activity_id", activityID, "athlete_id", athleteID)
	return nil
}
