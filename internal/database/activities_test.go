package database

import (
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Init(); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func testActivity(id, athlete int64, date time.Time) *Activity {
	return &Activity{
		ID:          id,
		Athlete:     athlete,
		Name:        "Morning Run",
		Date:        date,
		MovingTime:  3600,
		ElapsedTime: 3700,
		Distance:    10.00,
		Elevation:   120,
		Type:        "Run",
	}
}

func TestCreateAndGetActivity(t *testing.T) {
	db := setupTestDB(t)

	date := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := testActivity(98765, 12345, date)
	a.SportType = strPtr("TrailRun")
	a.Location = strPtr("Vif (38)")

	if err := db.CreateActivity(a); err != nil {
		t.Fatalf("Failed to create activity: %v", err)
	}

	retrieved, err := db.GetActivity(98765)
	if err != nil {
		t.Fatalf("Failed to get activity: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected activity, got nil")
	}

	if retrieved.ID != 98765 {
		t.Errorf("Expected id 98765, got %d", retrieved.ID)
	}
	if retrieved.Athlete != 12345 {
		t.Errorf("Expected athlete 12345, got %d", retrieved.Athlete)
	}
	if !retrieved.Date.Equal(date) {
		t.Errorf("Expected date %v, got %v", date, retrieved.Date)
	}
	if retrieved.SportType == nil || *retrieved.SportType != "TrailRun" {
		t.Errorf("Expected sport_type TrailRun, got %v", retrieved.SportType)
	}
	if retrieved.Location == nil || *retrieved.Location != "Vif (38)" {
		t.Errorf("Expected location Vif (38), got %v", retrieved.Location)
	}
}

func TestGetActivityNotFound(t *testing.T) {
	db := setupTestDB(t)

	a, err := db.GetActivity(404)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a != nil {
		t.Errorf("Expected nil for missing activity, got %+v", a)
	}
}

func TestUpdateActivity(t *testing.T) {
	db := setupTestDB(t)

	date := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := testActivity(1, 12345, date)
	if err := db.CreateActivity(a); err != nil {
		t.Fatalf("Failed to create activity: %v", err)
	}

	a.Name = "Evening Run"
	a.Distance = 12.50
	a.RedPoints = 42
	a.Description = strPtr("Nice trail loop")
	if err := db.UpdateActivity(a); err != nil {
		t.Fatalf("Failed to update activity: %v", err)
	}

	updated, err := db.GetActivity(1)
	if err != nil {
		t.Fatalf("Failed to get activity: %v", err)
	}
	if updated.Name != "Evening Run" {
		t.Errorf("Expected updated name, got %q", updated.Name)
	}
	if updated.Distance != 12.50 {
		t.Errorf("Expected distance 12.50, got %v", updated.Distance)
	}
	if updated.RedPoints != 42 {
		t.Errorf("Expected red_points 42, got %d", updated.RedPoints)
	}
	if updated.Description == nil || *updated.Description != "Nice trail loop" {
		t.Errorf("Expected description, got %v", updated.Description)
	}
}

func TestUpdateActivityNotFound(t *testing.T) {
	db := setupTestDB(t)

	a := testActivity(999, 12345, time.Now())
	if err := db.UpdateActivity(a); err == nil {
		t.Error("Expected error updating missing activity")
	}
}

func TestDeleteActivity(t *testing.T) {
	db := setupTestDB(t)

	if err := db.CreateActivity(testActivity(5, 12345, time.Now())); err != nil {
		t.Fatalf("Failed to create activity: %v", err)
	}

	deleted, err := db.DeleteActivity(5)
	if err != nil {
		t.Fatalf("Failed to delete activity: %v", err)
	}
	if !deleted {
		t.Error("Expected delete to report a removed row")
	}

	a, err := db.GetActivity(5)
	if err != nil {
		t.Fatalf("Failed to get activity: %v", err)
	}
	if a != nil {
		t.Error("Expected activity to be gone")
	}

	// Deleting a missing id is a no-op, not an error
	deleted, err = db.DeleteActivity(5)
	if err != nil {
		t.Fatalf("Unexpected error deleting missing activity: %v", err)
	}
	if deleted {
		t.Error("Expected no row to be removed")
	}
}

func TestLatestActivityDate(t *testing.T) {
	db := setupTestDB(t)

	latest, err := db.LatestActivityDate(12345)
	if err != nil {
		t.Fatalf("Failed to get latest date: %v", err)
	}
	if latest != nil {
		t.Errorf("Expected nil for empty table, got %v", latest)
	}

	newest := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	dates := []time.Time{
		time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		newest,
		time.Date(2024, 2, 20, 8, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		if err := db.CreateActivity(testActivity(int64(i+1), 12345, d)); err != nil {
			t.Fatalf("Failed to create activity: %v", err)
		}
	}
	// Another athlete's more recent activity must not leak in
	if err := db.CreateActivity(testActivity(100, 99999, newest.Add(48*time.Hour))); err != nil {
		t.Fatalf("Failed to create activity: %v", err)
	}

	latest, err = db.LatestActivityDate(12345)
	if err != nil {
		t.Fatalf("Failed to get latest date: %v", err)
	}
	if latest == nil || !latest.Equal(newest) {
		t.Errorf("Expected %v, got %v", newest, latest)
	}
}

func TestQueryActivitiesFilters(t *testing.T) {
	db := setupTestDB(t)

	mtb := &Gear{ID: "b1", Athlete: 12345, Name: "Hardtail", Category: "MTB", FrameType: 1}
	if err := db.UpsertGear(mtb); err != nil {
		t.Fatalf("Failed to upsert gear: %v", err)
	}

	ride := testActivity(1, 12345, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	ride.Name = "Forest loop"
	ride.Type = "Ride"
	ride.SportType = strPtr("MountainBikeRide")
	ride.GearID = strPtr("b1")

	run := testActivity(2, 12345, time.Date(2024, 3, 8, 18, 0, 0, 0, time.UTC))
	run.Name = "Tempo run"

	hike := testActivity(3, 12345, time.Date(2024, 2, 1, 11, 0, 0, 0, time.UTC))
	hike.Name = "Summit hike"
	hike.Type = "Hike"

	for _, a := range []*Activity{ride, run, hike} {
		if err := db.CreateActivity(a); err != nil {
			t.Fatalf("Failed to create activity: %v", err)
		}
	}

	// No filter: all three, date descending
	all, err := db.QueryActivities(12345, ActivityFilter{})
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 activities, got %d", len(all))
	}
	if all[0].ID != 2 || all[1].ID != 1 || all[2].ID != 3 {
		t.Errorf("Expected date-descending order [2 1 3], got [%d %d %d]", all[0].ID, all[1].ID, all[2].ID)
	}
	// Joined gear name on the ride
	if all[1].GearName == nil || *all[1].GearName != "Hardtail" {
		t.Errorf("Expected joined gear name Hardtail, got %v", all[1].GearName)
	}
	if all[0].GearName != nil {
		t.Errorf("Expected no gear name on run, got %v", *all[0].GearName)
	}

	// Legacy type filter
	runs, err := db.QueryActivities(12345, ActivityFilter{ActivityType: "Run"})
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != 2 {
		t.Errorf("Expected only the run, got %d results", len(runs))
	}

	// Gear category pseudo-type filter
	mtbRides, err := db.QueryActivities(12345, ActivityFilter{ActivityType: "MTB"})
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	if len(mtbRides) != 1 || mtbRides[0].ID != 1 {
		t.Errorf("Expected only the MTB ride, got %d results", len(mtbRides))
	}

	// Sport type filter
	sport, err := db.QueryActivities(12345, ActivityFilter{ActivityType: "MountainBikeRide"})
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	if len(sport) != 1 || sport[0].ID != 1 {
		t.Errorf("Expected only the mountain bike ride, got %d results", len(sport))
	}

	// Name substring
	named, err := db.QueryActivities(12345, ActivityFilter{NameContains: "loop"})
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	if len(named) != 1 || named[0].ID != 1 {
		t.Errorf("Expected only the forest loop, got %d results", len(named))
	}

	// Date range
	after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	ranged, err := db.QueryActivities(12345, ActivityFilter{After: &after, Before: &before})
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	if len(ranged) != 1 || ranged[0].ID != 1 {
		t.Errorf("Expected only the ride in range, got %d results", len(ranged))
	}

	// Explicit ids
	byIDs, err := db.QueryActivities(12345, ActivityFilter{IDs: []int64{2, 3}})
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	if len(byIDs) != 2 {
		t.Errorf("Expected 2 activities by ids, got %d", len(byIDs))
	}

	// Another athlete sees nothing
	other, err := db.QueryActivities(777, ActivityFilter{})
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no activities for other athlete, got %d", len(other))
	}
}

func TestQueryActivitiesOrphanedGear(t *testing.T) {
	db := setupTestDB(t)

	a := testActivity(1, 12345, time.Now())
	a.GearID = strPtr("gone")
	if err := db.CreateActivity(a); err != nil {
		t.Fatalf("Failed to create activity: %v", err)
	}

	rows, err := db.QueryActivities(12345, ActivityFilter{})
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 activity, got %d", len(rows))
	}
	if rows[0].GearName != nil {
		t.Errorf("Expected nil gear name for orphaned reference, got %q", *rows[0].GearName)
	}
}
