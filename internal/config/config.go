package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Host string
	Port int

	// Public base URL the OAuth callback is registered under
	BaseURL string

	// Database configuration
	DatabasePath string

	// Remote fitness API configuration
	StravaClientID     string
	StravaClientSecret string

	// Session configuration
	SessionSecret string
	SecureCookies bool

	// Reverse geocoding endpoint; empty selects the public Nominatim
	// instance
	GeocoderURL string

	// Sync behavior
	WithPoints              bool
	WithDescription         bool
	TrailElevationThreshold float64

	// AthleteWhitelist restricts which athlete ids may connect. Empty means
	// everyone.
	AthleteWhitelist []int64

	// Metrics server configuration
	MetricsPort int

	// Logging configuration
	LogLevel string
}

// Load reads configuration from environment variables
// It fails fast if required variables are missing
func Load() (*Config, error) {
	cfg := &Config{
		// Optional values with defaults
		Host:                    getEnv("HOST", "localhost"),
		Port:                    getEnvInt("PORT", 4201),
		BaseURL:                 getEnv("BASE_URL", "http://localhost:4201"),
		DatabasePath:            getEnv("DATABASE_PATH", "./data.db"),
		GeocoderURL:             getEnv("GEOCODER_URL", ""),
		WithPoints:              getEnvBool("WITH_POINTS", true),
		WithDescription:         getEnvBool("WITH_DESCRIPTION", true),
		TrailElevationThreshold: getEnvFloat("TRAIL_ELEVATION_THRESHOLD", 200),
		SecureCookies:           getEnvBool("SECURE_COOKIES", true),
		MetricsPort:             getEnvInt("METRICS_PORT", 4202),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}

	whitelist, err := parseWhitelist(os.Getenv("ATHLETE_WHITELIST"))
	if err != nil {
		return nil, err
	}
	cfg.AthleteWhitelist = whitelist

	// Required values
	var missingVars []string

	cfg.StravaClientID = os.Getenv("STRAVA_CLIENT_ID")
	if cfg.StravaClientID == "" {
		missingVars = append(missingVars, "STRAVA_CLIENT_ID")
	}

	cfg.StravaClientSecret = os.Getenv("STRAVA_CLIENT_SECRET")
	if cfg.StravaClientSecret == "" {
		missingVars = append(missingVars, "STRAVA_CLIENT_SECRET")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missingVars = append(missingVars, "SESSION_SECRET")
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return cfg, nil
}

// AthleteAllowed reports whether the athlete may use the service. An empty
// whitelist allows everyone.
func (c *Config) AthleteAllowed(athleteID int64) bool {
	if len(c.AthleteWhitelist) == 0 {
		return true
	}
	for _, id := range c.AthleteWhitelist {
		if id == athleteID {
			return true
		}
	}
	return false
}

// parseWhitelist parses a comma-separated list of athlete ids
func parseWhitelist(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}

	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ATHLETE_WHITELIST entry %q: %w", part, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvFloat gets a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
