package sync

import (
	"context"
	"fmt"

	"mystrava-sync/internal/database"
	"mystrava-sync/internal/taxonomy"
)

// ReconcileEquipment mirrors the athlete's remote bikes and shoes. Every
// remotely listed item is upserted active; a single sweep afterwards retires
// everything of the athlete's not in the remote set. The sweep runs last so
// it sees all the upserts.
func (s *Service) ReconcileEquipment(ctx context.Context, athleteID int64, accessToken string) ([]GearJSON, error) {
	unlock := s.lockAthlete(athleteID)
	defer unlock()

	athlete, err := s.remote.GetAthlete(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch athlete profile: %w", err)
	}

	var keep []string

	for _, bike := range athlete.Bikes {
		// The profile listing has no frame type; that needs the per-gear
		// detail endpoint
		detail, err := s.remote.GetGear(ctx, accessToken, bike.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch gear %s: %w", bike.ID, err)
		}

		g := &database.Gear{
			ID:        bike.ID,
			Athlete:   athleteID,
			Name:      detail.Name,
			Category:  taxonomy.FrameTypeCategory(detail.FrameType),
			FrameType: detail.FrameType,
		}
		if err := s.db.UpsertGear(g); err != nil {
			return nil, err
		}
		keep = append(keep, bike.ID)
	}

	for _, shoe := range athlete.Shoes {
		g := &database.Gear{
			ID:       shoe.ID,
			Athlete:  athleteID,
			Name:     shoe.Name,
			Category: taxonomy.Run,
		}
		if err := s.db.UpsertGear(g); err != nil {
			return nil, err
		}
		keep = append(keep, shoe.ID)
	}

	if err := s.db.RetireMissingGear(athleteID, keep); err != nil {
		return nil, err
	}

	s.logger.Info("equipment reconciled", "athlete_id", athleteID, "bikes", len(athlete.Bikes), "shoes", len(athlete.Shoes))

	return s.ListGear(athleteID)
}
