package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Gear represents a bike or pair of shoes belonging to an athlete
type Gear struct {
	ID        string
	Athlete   int64
	Name      string
	Category  string
	FrameType int
	Retired   bool
	CreatedAt int64
	UpdatedAt int64
}

// GetGear retrieves a gear item by ID. Returns nil when not found.
func (db *DB) GetGear(gearID string) (*Gear, error) {
	var g Gear
	err := db.conn.QueryRow(`
		SELECT id, athlete, name, category, frame_type, retired, created_at, updated_at
		FROM gear WHERE id = ?
	`, gearID).Scan(
		&g.ID, &g.Athlete, &g.Name, &g.Category, &g.FrameType, &g.Retired,
		&g.CreatedAt, &g.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gear: %w", err)
	}
	return &g, nil
}

// UpsertGear inserts a gear item or overwrites its name, category, frame
// type and retired flag. Seeing a gear item remotely always un-retires it.
func (db *DB) UpsertGear(g *Gear) error {
	now := time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO gear (id, athlete, name, category, frame_type, retired, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			frame_type = excluded.frame_type,
			retired = excluded.retired,
			updated_at = excluded.updated_at
	`, g.ID, g.Athlete, g.Name, g.Category, g.FrameType, g.Retired, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert gear: %w", err)
	}
	return nil
}

// RetireMissingGear marks every gear item of the athlete whose id is not in
// keepIDs as retired. Runs as a single sweep so it sees all preceding
// upserts; with an empty keepIDs everything is retired.
func (db *DB) RetireMissingGear(athleteID int64, keepIDs []string) error {
	query := `UPDATE gear SET retired = 1, updated_at = ? WHERE athlete = ?`
	args := []any{time.Now().Unix(), athleteID}

	if len(keepIDs) > 0 {
		placeholders := strings.Repeat("?,", len(keepIDs))
		query += ` AND id NOT IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, id := range keepIDs {
			args = append(args, id)
		}
	}

	if _, err := db.conn.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to retire missing gear: %w", err)
	}
	return nil
}

// ListGearByAthlete returns all gear items belonging to an athlete
func (db *DB) ListGearByAthlete(athleteID int64) ([]*Gear, error) {
	rows, err := db.conn.Query(`
		SELECT id, athlete, name, category, frame_type, retired, created_at, updated_at
		FROM gear WHERE athlete = ? ORDER BY name
	`, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list gear: %w", err)
	}
	defer rows.Close()

	var out []*Gear
	for rows.Next() {
		var g Gear
		err := rows.Scan(
			&g.ID, &g.Athlete, &g.Name, &g.Category, &g.FrameType, &g.Retired,
			&g.CreatedAt, &g.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gear: %w", err)
		}
		out = append(out, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gear: %w", err)
	}

	return out, nil
}
