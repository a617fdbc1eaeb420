package analysis

const (
	// A climb must accumulate more than this (m) to be recorded
	minClimbGain = 10.0

	// A descent steeper than this (m per sample) ends a climb
	climbEndDescent = -1.0

	hillyGainThreshold     = 100.0
	mountainClimbThreshold = 300.0
)

// ElevationAnalysis describes the terrain of an activity
type ElevationAnalysis struct {
	TotalGain            float64 // meters
	BiggestClimb         float64 // meters
	IsHilly              bool
	IsMountain           bool
	NumSignificantClimbs int
}

// AnalyzeElevation walks an altitude series (m) once, summing gain and
// segmenting climbs. Hilly is based on total gain and mountain on the biggest
// single climb; the two are computed independently and may disagree.
// Returns false when there are fewer than MinSamples samples.
func AnalyzeElevation(altitude []float64) (ElevationAnalysis, bool) {
	if len(altitude) < MinSamples {
		return ElevationAnalysis{}, false
	}

	var totalGain float64
	for i := 1; i < len(altitude); i++ {
		if diff := altitude[i] - altitude[i-1]; diff > 0 {
			totalGain += diff
		}
	}

	climbs := SegmentClimbs(altitude)
	var biggest float64
	for _, c := range climbs {
		if c > biggest {
			biggest = c
		}
	}

	return ElevationAnalysis{
		TotalGain:            totalGain,
		BiggestClimb:         biggest,
		IsHilly:              totalGain > hillyGainThreshold,
		IsMountain:           biggest > mountainClimbThreshold,
		NumSignificantClimbs: len(climbs),
	}, true
}

// SegmentClimbs returns the gain of each significant climb in order.
// Small dips inside a climb are tolerated; only a descent below -1 m closes it.
func SegmentClimbs(altitude []float64) []float64 {
	var climbs []float64
	var current float64

	for i := 1; i < len(altitude); i++ {
		diff := altitude[i] - altitude[i-1]
		switch {
		case diff > 0:
			current += diff
		case diff < climbEndDescent && current > minClimbGain:
			climbs = append(climbs, current)
			current = 0
		case diff < 0 && current <= minClimbGain:
			// noise, not a climb
			current = 0
		}
	}

	// Unterminated climb at the end of the series
	if current > minClimbGain {
		climbs = append(climbs, current)
	}

	return climbs
}
