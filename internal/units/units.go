// Package units converts raw remote measurements (meters, meters/second,
// seconds) into the units and formats the local store uses.
package units

import (
	"fmt"
	"math"
)

// Kilometers converts a distance in meters to kilometers rounded to two
// decimals. A nil input normalizes to 0.
func Kilometers(meters *float64) float64 {
	if meters == nil {
		return 0
	}
	return math.Round(*meters/10) / 100
}

// Meters rounds an elevation in meters to the nearest integer. A nil input
// normalizes to 0.
func Meters(meters *float64) float64 {
	if meters == nil {
		return 0
	}
	return math.Round(*meters)
}

// KilometersPerHour converts a speed in meters/second to km/h rounded to
// one decimal. A nil input normalizes to 0.
func KilometersPerHour(metersPerSecond *float64) float64 {
	if metersPerSecond == nil {
		return 0
	}
	return math.Round(*metersPerSecond*3.6*10) / 10
}

// Value returns the pointed-to number, normalizing nil to 0.
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// FormatDuration renders a duration in seconds as "H:MM:SS" with one-second
// resolution. Negative inputs are treated as zero.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
}
