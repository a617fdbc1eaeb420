package analysis

// Thresholds maps an activity type to a minimum elapsed time in seconds.
// Activities shorter than their type's threshold are hidden from the feed.
type Thresholds map[string]int

// Default thresholds per activity type (seconds)
const (
	DefaultRunThreshold  = 3600
	DefaultRideThreshold = 7200
	DefaultWalkThreshold = 10800
)

// DefaultThresholds returns the thresholds a new user starts with
func DefaultThresholds() Thresholds {
	return Thresholds{
		"Run":  DefaultRunThreshold,
		"Ride": DefaultRideThreshold,
		"Walk": DefaultWalkThreshold,
	}
}

// ShouldHide reports whether an activity should be hidden from the public feed.
// Types without a threshold are never hidden; an activity exactly at its
// threshold is kept.
func ShouldHide(activityType string, elapsedSeconds int, thresholds Thresholds) bool {
	threshold, ok := thresholds[activityType]
	if !ok {
		return false
	}
	return elapsedSeconds < threshold
}
