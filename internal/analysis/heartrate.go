package analysis

// ZoneCount is the number of heart rate intensity zones
const ZoneCount = 5

// zoneUpperBounds are exclusive upper bounds (percent of max) for zones 1-4.
// Anything at or above the last bound is zone 5.
var zoneUpperBounds = [ZoneCount - 1]float64{60, 70, 80, 90}

// ZoneAnalysis summarizes where a heart rate series spent its time
type ZoneAnalysis struct {
	AvgHR           float64
	MaxHR           float64
	DominantZone    int // 1-5
	ZonePercentages [ZoneCount]float64
}

// AnalyzeHeartRate buckets heart rate samples into five zones relative to the
// highest sample in the series. This is a self-relative simplification: the
// athlete's physiological max is not consulted, and zone semantics depend on it.
// Returns false when there are fewer than MinSamples samples or the max is not positive.
func AnalyzeHeartRate(samples []float64) (ZoneAnalysis, bool) {
	if len(samples) < MinSamples {
		return ZoneAnalysis{}, false
	}

	maxHR := maxOf(samples)
	if maxHR <= 0 {
		return ZoneAnalysis{}, false
	}

	var counts [ZoneCount]int
	for _, hr := range samples {
		counts[HeartRateZone(hr, maxHR)-1]++
	}

	// First maximum wins, so ties go to the lower zone
	dominant := 0
	for i := 1; i < ZoneCount; i++ {
		if counts[i] > counts[dominant] {
			dominant = i
		}
	}

	result := ZoneAnalysis{
		AvgHR:        mean(samples),
		MaxHR:        maxHR,
		DominantZone: dominant + 1,
	}
	total := float64(len(samples))
	for i, c := range counts {
		result.ZonePercentages[i] = float64(c) / total * 100
	}

	return result, true
}

// HeartRateZone returns the 1-based zone for hr relative to maxHR.
// Boundary values belong to the higher zone.
func HeartRateZone(hr, maxHR float64) int {
	percent := hr * 100 / maxHR
	for i, bound := range zoneUpperBounds {
		if percent < bound {
			return i + 1
		}
	}
	return ZoneCount
}

// ZoneName returns the title descriptor for a zone, or "" for an unknown zone
func ZoneName(zone int) string {
	switch zone {
	case 1:
		return "Recovery"
	case 2:
		return "Endurance"
	case 3:
		return "Tempo"
	case 4:
		return "Threshold"
	case 5:
		return "High Intensity"
	default:
		return ""
	}
}
