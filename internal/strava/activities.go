package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const activitiesPerPage = 200

// AthleteRef identifies the owner of an activity
type AthleteRef struct {
	ID int64 `json:"id"`
}

// ActivitySummary is an activity as returned by the paginated listing
// endpoint. Numeric fields the remote may omit are pointers so absence is
// distinguishable from zero.
type ActivitySummary struct {
	ID                 int64      `json:"id"`
	Athlete            AthleteRef `json:"athlete"`
	Name               string     `json:"name"`
	Type               string     `json:"type"`
	SportType          *string    `json:"sport_type"`
	StartDateLocal     time.Time  `json:"start_date_local"`
	MovingTime         int64      `json:"moving_time"`
	ElapsedTime        int64      `json:"elapsed_time"`
	Distance           *float64   `json:"distance"`
	TotalElevationGain *float64   `json:"total_elevation_gain"`
	AverageSpeed       *float64   `json:"average_speed"`
	AverageHeartrate   *float64   `json:"average_heartrate"`
	MaxHeartrate       *float64   `json:"max_heartrate"`
	SufferScore        *float64   `json:"suffer_score"`
	GearID             *string    `json:"gear_id"`
	Commute            bool       `json:"commute"`
	StartLatLng        []float64  `json:"start_latlng"`
}

// ActivityDetail is the full activity payload from the per-activity endpoint
type ActivityDetail struct {
	ActivitySummary
	Description *string  `json:"description"`
	Calories    *float64 `json:"calories"`
}

// ActivityZone is one heart rate or power zone summary of an activity
type ActivityZone struct {
	Type   string `json:"type"`
	Points int    `json:"points"`
}

// ListActivities returns the athlete's activities, oldest first, optionally
// restricted to those starting after the given time. Pages are fetched until
// a short page is seen.
func (c *Client) ListActivities(ctx context.Context, accessToken string, after *time.Time) ([]ActivitySummary, error) {
	var all []ActivitySummary

	for page := 1; ; page++ {
		params := url.Values{
			"per_page": {strconv.Itoa(activitiesPerPage)},
			"page":     {strconv.Itoa(page)},
		}
		if after != nil {
			params.Set("after", strconv.FormatInt(after.Unix(), 10))
		}

		body, err := c.doRequest(ctx, "/athlete/activities?"+params.Encode(), accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to list activities (page %d): %w", page, err)
		}

		var batch []ActivitySummary
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode activities: %w", err)
		}

		all = append(all, batch...)
		if len(batch) < activitiesPerPage {
			break
		}
	}

	return all, nil
}

// GetActivity fetches the detailed payload of one activity
func (c *Client) GetActivity(ctx context.Context, accessToken string, activityID int64) (*ActivityDetail, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/activities/%d", activityID), accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity %d: %w", activityID, err)
	}

	var detail ActivityDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode activity: %w", err)
	}

	return &detail, nil
}

// GetActivityZones fetches the zone summaries of an activity. Activities
// without heart rate data commonly 404 here; callers treat that as "no
// zones".
func (c *Client) GetActivityZones(ctx context.Context, accessToken string, activityID int64) ([]ActivityZone, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("/activities/%d/zones", activityID), accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity zones %d: %w", activityID, err)
	}

	var zones []ActivityZone
	if err := json.Unmarshal(body, &zones); err != nil {
		return nil, fmt.Errorf("failed to decode activity zones: %w", err)
	}

	return zones, nil
}
