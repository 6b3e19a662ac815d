package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Activities table: local mirror of remote activities, one row per remote id
CREATE TABLE IF NOT EXISTS activities (
    id INTEGER PRIMARY KEY,  -- Remote activity ID, never generated locally
    athlete INTEGER NOT NULL,

    -- Descriptive fields
    name TEXT NOT NULL DEFAULT '',
    location TEXT,     -- Derived via reverse geocoding, NULL until enriched
    description TEXT,  -- NULL until the detail pass runs

    -- Temporal fields
    date INTEGER NOT NULL,                    -- Activity-local start time, Unix timestamp
    moving_time INTEGER NOT NULL DEFAULT 0,   -- Seconds
    elapsed_time INTEGER NOT NULL DEFAULT 0,  -- Seconds

    -- Measures (stored in display units)
    distance REAL NOT NULL DEFAULT 0,        -- km, 2 decimals
    elevation REAL NOT NULL DEFAULT 0,       -- m, integer-rounded
    average_speed REAL NOT NULL DEFAULT 0,   -- km/h, 1 decimal
    average_heartrate REAL NOT NULL DEFAULT 0,
    max_heartrate INTEGER NOT NULL DEFAULT 0,
    suffer_score INTEGER NOT NULL DEFAULT 0,
    red_points INTEGER NOT NULL DEFAULT 0,   -- Derived from heart-rate zones
    calories REAL NOT NULL DEFAULT 0,

    -- Classification
    type TEXT NOT NULL DEFAULT '',  -- Legacy taxonomy
    sport_type TEXT,                -- Refined taxonomy, NULL until reported or backfilled
    gear_id TEXT,                   -- May reference nothing; orphans tolerated
    commute BOOLEAN NOT NULL DEFAULT 0,

    -- Metadata
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Gear table: bikes and shoes belonging to an athlete
CREATE TABLE IF NOT EXISTS gear (
    id TEXT PRIMARY KEY,  -- Remote gear ID
    athlete INTEGER NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',  -- From frame_type for bikes, "Run" for shoes
    frame_type INTEGER NOT NULL DEFAULT 0,
    retired BOOLEAN NOT NULL DEFAULT 0,

    -- Metadata
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Indexes for activities table
CREATE INDEX IF NOT EXISTS idx_activities_athlete ON activities(athlete);
CREATE INDEX IF NOT EXISTS idx_activities_athlete_date ON activities(athlete, date DESC);
CREATE INDEX IF NOT EXISTS idx_activities_sport_type ON activities(sport_type);
CREATE INDEX IF NOT EXISTS idx_activities_gear ON activities(gear_id);

-- Indexes for gear table
CREATE INDEX IF NOT EXISTS idx_gear_athlete ON gear(athlete);
`
