package analysis

import (
	"fmt"
	"math"
)

const (
	// Interval detection thresholds (m/s)
	intervalStdDevThreshold    = 1.0
	intervalAvgChangeThreshold = 0.5

	metersPerKm      = 1000.0
	secondsPerMinute = 60.0
	msToKmh          = 3.6
)

// PaceAnalysis describes the velocity profile of an activity
type PaceAnalysis struct {
	AvgVelocity     float64 // m/s
	MaxVelocity     float64 // m/s
	PaceDescription string  // "5:00 min/km" or "32.4 km/h"
	IsInterval      bool
	StdDev          float64 // population standard deviation of velocity
	AvgChange       float64 // mean absolute change between consecutive samples
}

// AnalyzePace summarizes a velocity series (m/s). Runs and walks are described
// as min/km, everything else as km/h.
// Returns false when there are fewer than MinSamples samples.
func AnalyzePace(samples []float64, activityType string) (PaceAnalysis, bool) {
	if len(samples) < MinSamples {
		return PaceAnalysis{}, false
	}

	avg := mean(samples)
	stdDev := populationStdDev(samples)
	avgChange := meanAbsoluteChange(samples)

	return PaceAnalysis{
		AvgVelocity:     avg,
		MaxVelocity:     maxOf(samples),
		PaceDescription: DescribePace(avg, activityType),
		IsInterval:      IntervalDetected(stdDev, avgChange),
		StdDev:          stdDev,
		AvgChange:       avgChange,
	}, true
}

// IntervalDetected reports whether velocity variability looks like interval work:
// both a high spread and frequent large changes
func IntervalDetected(stdDev, avgChange float64) bool {
	return stdDev > intervalStdDevThreshold && avgChange > intervalAvgChangeThreshold
}

// DescribePace formats an average velocity for the given activity type
func DescribePace(avgVelocity float64, activityType string) string {
	if usesMinPerKm(activityType) {
		return FormatPace(PaceMinPerKm(avgVelocity))
	}
	return fmt.Sprintf("%.1f km/h", avgVelocity*msToKmh)
}

// PaceMinPerKm converts m/s to minutes per km. Zero velocity gives 0.
func PaceMinPerKm(velocity float64) float64 {
	return secondsPerKm(velocity) / secondsPerMinute
}

// FormatPace renders a pace in minutes per km as "M:SS min/km". The seconds
// are the truncated fractional minute times 60, so 320 s/km renders as 5:19.
func FormatPace(minPerKm float64) string {
	if minPerKm <= 0 || math.IsInf(minPerKm, 0) || math.IsNaN(minPerKm) {
		minPerKm = 0
	}
	whole := math.Floor(minPerKm)
	seconds := int((minPerKm - whole) * secondsPerMinute)
	return fmt.Sprintf("%d:%02d min/km", int(whole), seconds)
}

func secondsPerKm(velocity float64) float64 {
	if velocity <= 0 {
		return 0
	}
	return metersPerKm / velocity
}

func usesMinPerKm(activityType string) bool {
	return activityType == "Run" || activityType == "Walk"
}

func meanAbsoluteChange(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(samples); i++ {
		total += math.Abs(samples[i] - samples[i-1])
	}
	return total / float64(len(samples)-1)
}
