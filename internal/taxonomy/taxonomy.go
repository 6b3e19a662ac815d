// Package taxonomy holds the closed sets of activity, sport and gear
// classifications shared by the reconciler and the query layer.
package taxonomy

// Legacy activity types as reported by the remote API before sport types
// existed. Road/MTB/CX/TT/Gravel are gear categories treated as
// pseudo-activity-types for filtering purposes.
const (
	Hike      = "Hike"
	Run       = "Run"
	Ride      = "Ride"
	NordicSki = "NordicSki"
	Road      = "Road"
	MTB       = "MTB"
	CX        = "CX"
	TT        = "TT"
	Gravel    = "Gravel"
)

// Sport types from the refined taxonomy that the backfill pass assigns.
const (
	SportRide             = "Ride"
	SportGravelRide       = "GravelRide"
	SportMountainBikeRide = "MountainBikeRide"
	SportTrailRun         = "TrailRun"
)

// frameTypeCategories maps the remote bike frame_type code to a display
// category. Code 5 (gravel) appeared in a later API revision.
var frameTypeCategories = map[int]string{
	0: "",
	1: MTB,
	2: CX,
	3: Road,
	4: TT,
	5: Gravel,
}

// activityTypes is the recognized filter set: real legacy types plus the
// gear categories considered activities of their own.
var activityTypes = map[string]bool{
	Hike:      true,
	Run:       true,
	Ride:      true,
	NordicSki: true,
	Road:      true,
	MTB:       true,
	CX:        true,
	TT:        true,
	Gravel:    true,
}

// legacyTypes is the subset that is stored in the activities table itself,
// as opposed to being derived from linked gear.
var legacyTypes = map[string]bool{
	Hike:      true,
	Run:       true,
	Ride:      true,
	NordicSki: true,
}

// IsActivityType reports whether t is a recognized filter value.
func IsActivityType(t string) bool {
	return activityTypes[t]
}

// IsLegacyType reports whether t is stored directly on activities rather
// than derived from gear.
func IsLegacyType(t string) bool {
	return legacyTypes[t]
}

// FrameTypeCategory returns the gear category for a bike frame_type code.
// Unknown codes map to the empty category.
func FrameTypeCategory(code int) string {
	return frameTypeCategories[code]
}

// SportTypeForCategory returns the refined sport type a ride inherits from
// its gear category. The empty string means the category does not determine
// a sport type.
func SportTypeForCategory(category string) string {
	switch category {
	case MTB:
		return SportMountainBikeRide
	case Gravel:
		return SportGravelRide
	case Road:
		return SportRide
	default:
		return ""
	}
}

// LegacyAlias maps a gear category or sport type back to the legacy
// activity type it belongs to, or "" when there is no alias.
func LegacyAlias(t string) string {
	switch t {
	case Road, MTB, CX, TT, Gravel, SportGravelRide, SportMountainBikeRide:
		return Ride
	case SportTrailRun:
		return Run
	default:
		if legacyTypes[t] {
			return t
		}
		return ""
	}
}
