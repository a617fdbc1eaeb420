package analysis

import "math"

// MinSamples is the smallest series any analyzer will work with
const MinSamples = 10

// Stream channel names as returned by the Strava streams endpoint
const (
	ChannelHeartrate = "heartrate"
	ChannelVelocity  = "velocity_smooth"
	ChannelAltitude  = "altitude"
	ChannelGrade     = "grade_smooth"
)

// Activity is the metadata snapshot the decision engine reads
type Activity struct {
	ID          int64
	Name        string
	Type        string
	Distance    float64 // meters
	ElapsedTime int     // seconds
}

// StreamSet holds one sample series per channel. Any channel may be missing.
type StreamSet map[string][]float64

// Channel returns the samples for a channel, or nil if absent
func (s StreamSet) Channel(name string) []float64 {
	if s == nil {
		return nil
	}
	return s[name]
}

// IsEmpty reports whether no channel carries any samples
func (s StreamSet) IsEmpty() bool {
	for _, samples := range s {
		if len(samples) > 0 {
			return false
		}
	}
	return true
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, v := range samples {
		total += v
	}
	return total / float64(len(samples))
}

func maxOf(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	m := samples[0]
	for _, v := range samples[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// populationStdDev returns 0 for fewer than 2 samples
func populationStdDev(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	avg := mean(samples)
	var sumSq float64
	for _, v := range samples {
		d := v - avg
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}
