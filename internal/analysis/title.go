package analysis

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultTitle is used when not even the activity metadata is usable
	DefaultTitle = "Workout"

	// Elevation gain (m) above which the title mentions it
	titleGainThreshold = 50.0
)

// ComposeTitle builds a descriptive title from activity metadata and whichever
// analyses are available. A nil analysis omits its segments. The result is
// always a non-empty string.
func ComposeTitle(activity *Activity, hr *ZoneAnalysis, pace *PaceAnalysis, elev *ElevationAnalysis) (title string) {
	if activity == nil {
		return DefaultTitle
	}

	defer func() {
		if r := recover(); r != nil {
			title = FallbackTitle(activity)
		}
	}()

	var parts []string

	if hr != nil {
		if name := ZoneName(hr.DominantZone); name != "" {
			parts = append(parts, name)
		}
	}

	if pace != nil && pace.IsInterval {
		parts = append(parts, "Interval")
	}

	if elev != nil {
		switch {
		case elev.IsMountain:
			parts = append(parts, "Mountain")
		case elev.IsHilly:
			parts = append(parts, "Hilly")
		}
	}

	base := FallbackTitle(activity)
	if base == DefaultTitle {
		return DefaultTitle
	}
	parts = append(parts, base)

	if pace != nil && pace.PaceDescription != "" {
		parts = append(parts, "at "+pace.PaceDescription)
	}

	if elev != nil && elev.TotalGain > titleGainThreshold {
		parts = append(parts, fmt.Sprintf("with %dm gain", int(elev.TotalGain)))
	}

	return strings.Join(parts, " ")
}

// FallbackTitle is the metadata-only title: "{type} {km}km".
// It degrades to DefaultTitle when the distance is not a finite number.
func FallbackTitle(activity *Activity) string {
	if activity == nil {
		return DefaultTitle
	}
	if math.IsNaN(activity.Distance) || math.IsInf(activity.Distance, 0) {
		return DefaultTitle
	}
	activityType := activity.Type
	if activityType == "" {
		activityType = DefaultTitle
	}
	return fmt.Sprintf("%s %.1fkm", activityType, activity.Distance/metersPerKm)
}

// GenerateTitle runs every analyzer over the available streams and composes a title
func GenerateTitle(activity *Activity, streams StreamSet) string {
	if activity == nil {
		return DefaultTitle
	}
	a := Analyze(activity, streams)
	return ComposeTitle(activity, a.HeartRate, a.Pace, a.Elevation)
}

// Analyses bundles the optional analyzer results for one activity
type Analyses struct {
	HeartRate *ZoneAnalysis
	Pace      *PaceAnalysis
	Elevation *ElevationAnalysis
}

// Analyze runs each analyzer on its channel. Missing or short channels leave
// the corresponding field nil.
func Analyze(activity *Activity, streams StreamSet) Analyses {
	var a Analyses
	if hr, ok := AnalyzeHeartRate(streams.Channel(ChannelHeartrate)); ok {
		a.HeartRate = &hr
	}
	activityType := ""
	if activity != nil {
		activityType = activity.Type
	}
	if pace, ok := AnalyzePace(streams.Channel(ChannelVelocity), activityType); ok {
		a.Pace = &pace
	}
	if elev, ok := AnalyzeElevation(streams.Channel(ChannelAltitude)); ok {
		a.Elevation = &elev
	}
	return a
}
