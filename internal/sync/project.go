package sync

import (
	"time"

	"mystrava-sync/internal/database"
	"mystrava-sync/internal/taxonomy"
	"mystrava-sync/internal/units"
)

// Query narrows a QueryActivities call
type Query struct {
	Before       *time.Time
	After        *time.Time
	NameContains string
	ActivityType string
	IDs          []int64
}

// ActivityJSON is the serving-layer projection of an activity
type ActivityJSON struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Location         string  `json:"location"`
	Description      string  `json:"description,omitempty"`
	Date             string  `json:"date"`
	MovingTime       string  `json:"moving_time"`
	ElapsedTime      string  `json:"elapsed_time"`
	Distance         float64 `json:"distance"`
	Elevation        float64 `json:"elevation"`
	AverageSpeed     float64 `json:"average_speed"`
	AverageHeartrate float64 `json:"average_heartrate"`
	MaxHeartrate     int64   `json:"max_heartrate"`
	SufferScore      int64   `json:"suffer_score"`
	RedPoints        int64   `json:"red_points"`
	Calories         float64 `json:"calories"`
	Type             string  `json:"type"`
	SportType        string  `json:"sport_type,omitempty"`
	GearName         string  `json:"gear_name,omitempty"`
	BikeType         string  `json:"bike_type,omitempty"`
	Commute          bool    `json:"commute"`
}

// GearJSON is the serving-layer projection of a gear item
type GearJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	FrameType int    `json:"frame_type,omitempty"`
	Retired   bool   `json:"retired"`
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func projectActivity(r *database.ActivityRow) ActivityJSON {
	out := ActivityJSON{
		ID:               r.ID,
		Name:             r.Name,
		Location:         strOrEmpty(r.Location),
		Description:      strOrEmpty(r.Description),
		Date:             r.Date.Format("2006-01-02"),
		MovingTime:       units.FormatDuration(r.MovingTime),
		ElapsedTime:      units.FormatDuration(r.ElapsedTime),
		Distance:         r.Distance,
		Elevation:        r.Elevation,
		AverageSpeed:     r.AverageSpeed,
		AverageHeartrate: r.AverageHeartrate,
		MaxHeartrate:     r.MaxHeartrate,
		SufferScore:      r.SufferScore,
		RedPoints:        r.RedPoints,
		Calories:         r.Calories,
		Type:             r.Type,
		SportType:        strOrEmpty(r.SportType),
		GearName:         strOrEmpty(r.GearName),
		Commute:          r.Commute,
	}
	// The bike category is only meaningful on rides; shoes all share one
	// category
	if r.Type == taxonomy.Ride && r.GearCategory != nil {
		out.BikeType = *r.GearCategory
	}
	return out
}

// QueryActivities returns the athlete's activities matching the query,
// newest first, joined with gear names.
func (s *Service) QueryActivities(athleteID int64, q Query) ([]ActivityJSON, error) {
	rows, err := s.db.QueryActivities(athleteID, database.ActivityFilter{
		Before:       q.Before,
		After:        q.After,
		NameContains: q.NameContains,
		ActivityType: q.ActivityType,
		IDs:          q.IDs,
	})
	if err != nil {
		return nil, err
	}

	out := make([]ActivityJSON, len(rows))
	for i, r := range rows {
		out[i] = projectActivity(r)
	}
	return out, nil
}

// ListGear returns the athlete's mirrored gear, retired items included.
func (s *Service) ListGear(athleteID int64) ([]GearJSON, error) {
	gear, err := s.db.ListGearByAthlete(athleteID)
	if err != nil {
		return nil, err
	}

	out := make([]GearJSON, len(gear))
	for i, g := range gear {
		out[i] = GearJSON{
			ID:        g.ID,
			Name:      g.Name,
			Category:  g.Category,
			FrameType: g.FrameType,
			Retired:   g.Retired,
		}
	}
	return out, nil
}
