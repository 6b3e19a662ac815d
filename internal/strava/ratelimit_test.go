package strava

import "testing"

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter()

	status := rl.Status()
	if status.Limit15Min != 200 || status.LimitDaily != 2000 {
		t.Errorf("Unexpected default limits: %+v", status)
	}
	if status.Usage15MinPct != 0 || status.UsageDailyPct != 0 {
		t.Errorf("Expected zero usage: %+v", status)
	}
}

func TestRateLimiterIsNearLimit(t *testing.T) {
	rl := NewRateLimiter()

	rl.Update(600, 300, 30000, 1000)
	if rl.IsNearLimit(80) {
		t.Error("50% usage should not be near an 80% threshold")
	}
	if !rl.IsNearLimit(50) {
		t.Error("50% usage should trip a 50% threshold")
	}

	// Daily window trips independently of the 15 minute window
	rl.Update(600, 10, 30000, 29000)
	if !rl.IsNearLimit(90) {
		t.Error("Expected daily usage to trip the threshold")
	}
}
