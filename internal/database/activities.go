package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mystrava-sync/internal/taxonomy"
)

// Activity represents a locally mirrored activity
type Activity struct {
	ID               int64
	Athlete          int64
	Name             string
	Location         *string
	Description      *string
	Date             time.Time
	MovingTime       int64 // seconds
	ElapsedTime      int64 // seconds
	Distance         float64
	Elevation        float64
	AverageSpeed     float64
	AverageHeartrate float64
	MaxHeartrate     int64
	SufferScore      int64
	RedPoints        int64
	Calories         float64
	Type             string
	SportType        *string
	GearID           *string
	Commute          bool
	CreatedAt        int64
	UpdatedAt        int64
}

const activityColumns = `id, athlete, name, location, description, date,
	moving_time, elapsed_time, distance, elevation, average_speed,
	average_heartrate, max_heartrate, suffer_score, red_points, calories,
	type, sport_type, gear_id, commute, created_at, updated_at`

func scanActivity(row interface{ Scan(...any) error }) (*Activity, error) {
	var a Activity
	var date int64
	err := row.Scan(
		&a.ID, &a.Athlete, &a.Name, &a.Location, &a.Description, &date,
		&a.MovingTime, &a.ElapsedTime, &a.Distance, &a.Elevation, &a.AverageSpeed,
		&a.AverageHeartrate, &a.MaxHeartrate, &a.SufferScore, &a.RedPoints, &a.Calories,
		&a.Type, &a.SportType, &a.GearID, &a.Commute, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Date = time.Unix(date, 0)
	return &a, nil
}

// CreateActivity inserts a new activity into the database
func (db *DB) CreateActivity(a *Activity) error {
	now := time.Now().Unix()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := db.conn.Exec(`
		INSERT INTO activities (
			id, athlete, name, location, description, date,
			moving_time, elapsed_time, distance, elevation, average_speed,
			average_heartrate, max_heartrate, suffer_score, red_points, calories,
			type, sport_type, gear_id, commute, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Athlete, a.Name, a.Location, a.Description, a.Date.Unix(),
		a.MovingTime, a.ElapsedTime, a.Distance, a.Elevation, a.AverageSpeed,
		a.AverageHeartrate, a.MaxHeartrate, a.SufferScore, a.RedPoints, a.Calories,
		a.Type, a.SportType, a.GearID, a.Commute, a.CreatedAt, a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// GetActivity retrieves an activity by ID. Returns nil when not found.
func (db *DB) GetActivity(activityID int64) (*Activity, error) {
	a, err := scanActivity(db.conn.QueryRow(`
		SELECT `+activityColumns+` FROM activities WHERE id = ?
	`, activityID))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// UpdateActivity overwrites all mutable columns of an existing activity.
// The athlete column is immutable once set and is deliberately not updated.
func (db *DB) UpdateActivity(a *Activity) error {
	a.UpdatedAt = time.Now().Unix()

	result, err := db.conn.Exec(`
		UPDATE activities SET
			name = ?, location = ?, description = ?, date = ?,
			moving_time = ?, elapsed_time = ?, distance = ?, elevation = ?,
			average_speed = ?, average_heartrate = ?, max_heartrate = ?,
			suffer_score = ?, red_points = ?, calories = ?,
			type = ?, sport_type = ?, gear_id = ?, commute = ?, updated_at = ?
		WHERE id = ?
	`, a.Name, a.Location, a.Description, a.Date.Unix(),
		a.MovingTime, a.ElapsedTime, a.Distance, a.Elevation,
		a.AverageSpeed, a.AverageHeartrate, a.MaxHeartrate,
		a.SufferScore, a.RedPoints, a.Calories,
		a.Type, a.SportType, a.GearID, a.Commute, a.UpdatedAt, a.ID)

	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("activity not found")
	}

	return nil
}

// DeleteActivity removes an activity. Deleting a missing id is not an error;
// the bool reports whether a row was removed.
func (db *DB) DeleteActivity(activityID int64) (bool, error) {
	result, err := db.conn.Exec(`DELETE FROM activities WHERE id = ?`, activityID)
	if err != nil {
		return false, fmt.Errorf("failed to delete activity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// LatestActivityDate returns the most recent activity date for an athlete,
// or nil when the athlete has no activities yet.
func (db *DB) LatestActivityDate(athleteID int64) (*time.Time, error) {
	var date int64
	err := db.conn.QueryRow(`
		SELECT date FROM activities WHERE athlete = ? ORDER BY date DESC LIMIT 1
	`, athleteID).Scan(&date)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest activity date: %w", err)
	}

	t := time.Unix(date, 0)
	return &t, nil
}

// ActivityFilter narrows a QueryActivities call. Zero values mean "no
// constraint".
type ActivityFilter struct {
	Before       *time.Time
	After        *time.Time
	NameContains string
	// ActivityType is either a legacy type (matched against activities.type),
	// a gear category pseudo-type (matched against the joined gear), or a
	// refined sport type.
	ActivityType string
	IDs          []int64
}

// ActivityRow is an activity joined with its gear for the query interface.
// GearName is nil for orphaned or absent gear references.
type ActivityRow struct {
	Activity
	GearName     *string
	GearCategory *string
}

// QueryActivities returns the athlete's activities matching the filter,
// sorted by date descending, each joined with its gear's name.
func (db *DB) QueryActivities(athleteID int64, f ActivityFilter) ([]*ActivityRow, error) {
	var conds []string
	var args []any

	conds = append(conds, "a.athlete = ?")
	args = append(args, athleteID)

	if f.Before != nil {
		conds = append(conds, "a.date <= ?")
		args = append(args, f.Before.Unix())
	}
	if f.After != nil {
		conds = append(conds, "a.date >= ?")
		args = append(args, f.After.Unix())
	}
	if f.NameContains != "" {
		conds = append(conds, "a.name LIKE ?")
		args = append(args, "%"+f.NameContains+"%")
	}
	if f.ActivityType != "" {
		switch {
		case taxonomy.IsLegacyType(f.ActivityType):
			conds = append(conds, "a.type = ?")
		case taxonomy.IsActivityType(f.ActivityType):
			// Gear categories are treated as activity types of their own
			conds = append(conds, "g.category = ?")
		default:
			conds = append(conds, "a.sport_type = ?")
		}
		args = append(args, f.ActivityType)
	}
	if len(f.IDs) > 0 {
		placeholders := strings.Repeat("?,", len(f.IDs))
		conds = append(conds, "a.id IN ("+placeholders[:len(placeholders)-1]+")")
		for _, id := range f.IDs {
			args = append(args, id)
		}
	}

	query := `
		SELECT a.id, a.athlete, a.name, a.location, a.description, a.date,
		       a.moving_time, a.elapsed_time, a.distance, a.elevation, a.average_speed,
		       a.average_heartrate, a.max_heartrate, a.suffer_score, a.red_points, a.calories,
		       a.type, a.sport_type, a.gear_id, a.commute, a.created_at, a.updated_at,
		       g.name, g.category
		FROM activities a
		LEFT JOIN gear g ON a.gear_id = g.id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY a.date DESC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var out []*ActivityRow
	for rows.Next() {
		var r ActivityRow
		var date int64
		err := rows.Scan(
			&r.ID, &r.Athlete, &r.Name, &r.Location, &r.Description, &date,
			&r.MovingTime, &r.ElapsedTime, &r.Distance, &r.Elevation, &r.AverageSpeed,
			&r.AverageHeartrate, &r.MaxHeartrate, &r.SufferScore, &r.RedPoints, &r.Calories,
			&r.Type, &r.SportType, &r.GearID, &r.Commute, &r.CreatedAt, &r.UpdatedAt,
			&r.GearName, &r.GearCategory,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		r.Date = time.Unix(date, 0)
		out = append(out, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return out, nil
}
