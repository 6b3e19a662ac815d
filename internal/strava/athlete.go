package strava

import (
	"context"
	"encoding/json"
	"fmt"
)

// GearRef is the abbreviated gear entry on an athlete profile
type GearRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Athlete is the authenticated athlete's profile
type Athlete struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Profile   string    `json:"profile_medium"`
	Premium   bool      `json:"premium"`
	Bikes     []GearRef `json:"bikes"`
	Shoes     []GearRef `json:"shoes"`
}

// GearDetail is the full gear payload, including the frame type code for
// bikes
type GearDetail struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FrameType int    `json:"frame_type"`
	Retired   bool   `json:"retired"`
}

// GetAthlete fetches the authenticated athlete's profile
func (c *Client) GetAthlete(ctx context.Context, accessToken string) (*Athlete, error) {
	body, err := c.doRequest(ctx, "/athlete", accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}

	var athlete Athlete
	if err := json.Unmarshal(body, &athlete); err != nil {
		return nil, fmt.Errorf("failed to decode athlete: %w", err)
	}

	return &athlete, nil
}

// GetGear fetches the detailed payload of one gear item
func (c *Client) GetGear(ctx context.Context, accessToken, gearID string) (*GearDetail, error) {
	body, err := c.doRequest(ctx, "/gear/"+gearID, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get gear %s: %w", gearID, err)
	}

	var gear GearDetail
	if err := json.Unmarshal(body, &gear); err != nil {
		return nil, fmt.Errorf("failed to decode gear: %w", err)
	}

	return &gear, nil
}
