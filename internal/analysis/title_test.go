package analysis

import (
	"math"
	"strings"
	"testing"
)

func TestComposeTitle(t *testing.T) {
	run := &Activity{Type: "Run", Distance: 10000, ElapsedTime: 3000}

	tests := []struct {
		name     string
		activity *Activity
		hr       *ZoneAnalysis
		pace     *PaceAnalysis
		elev     *ElevationAnalysis
		expected string
	}{
		{
			name:     "all analyses present",
			activity: run,
			hr:       &ZoneAnalysis{DominantZone: 3},
			pace:     &PaceAnalysis{PaceDescription: "5:00 min/km"},
			elev:     &ElevationAnalysis{TotalGain: 120, IsHilly: true},
			expected: "Tempo Hilly Run 10.0km at 5:00 min/km with 120m gain",
		},
		{
			name:     "metadata only",
			activity: &Activity{Type: "Ride", Distance: 25000},
			expected: "Ride 25.0km",
		},
		{
			name:     "nil activity",
			activity: nil,
			hr:       &ZoneAnalysis{DominantZone: 3},
			expected: "Workout",
		},
		{
			name:     "missing type falls back to Workout",
			activity: &Activity{Distance: 5000},
			expected: "Workout 5.0km",
		},
		{
			name:     "non-finite distance degrades to Workout",
			activity: &Activity{Type: "Run", Distance: math.NaN()},
			pace:     &PaceAnalysis{PaceDescription: "5:00 min/km"},
			expected: "Workout",
		},
		{
			name:     "interval high intensity",
			activity: &Activity{Type: "Run", Distance: 8000},
			hr:       &ZoneAnalysis{DominantZone: 5},
			pace:     &PaceAnalysis{PaceDescription: "4:30 min/km", IsInterval: true},
			expected: "High Intensity Interval Run 8.0km at 4:30 min/km",
		},
		{
			name:     "mountain takes precedence over hilly",
			activity: &Activity{Type: "Ride", Distance: 80450},
			elev:     &ElevationAnalysis{TotalGain: 1432.7, BiggestClimb: 812, IsHilly: true, IsMountain: true},
			expected: "Mountain Ride 80.5km with 1432m gain",
		},
		{
			name:     "mountain flag without hilly flag still says Mountain",
			activity: &Activity{Type: "Ride", Distance: 40000},
			elev:     &ElevationAnalysis{TotalGain: 40, BiggestClimb: 350, IsMountain: true},
			expected: "Mountain Ride 40.0km",
		},
		{
			name:     "small gain is not mentioned",
			activity: &Activity{Type: "Walk", Distance: 3000},
			hr:       &ZoneAnalysis{DominantZone: 1},
			elev:     &ElevationAnalysis{TotalGain: 50},
			expected: "Recovery Walk 3.0km",
		},
		{
			name:     "gain is truncated",
			activity: &Activity{Type: "Run", Distance: 12345},
			elev:     &ElevationAnalysis{TotalGain: 88.9},
			expected: "Run 12.3km with 88m gain",
		},
		{
			name:     "unknown zone is skipped",
			activity: &Activity{Type: "Run", Distance: 1000},
			hr:       &ZoneAnalysis{DominantZone: 0},
			expected: "Run 1.0km",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeTitle(tt.activity, tt.hr, tt.pace, tt.elev)
			if got != tt.expected {
				t.Errorf("ComposeTitle() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGenerateTitle(t *testing.T) {
	t.Run("empty streams degrade to metadata", func(t *testing.T) {
		got := GenerateTitle(&Activity{Type: "Ride", Distance: 25000}, StreamSet{})
		if got != "Ride 25.0km" {
			t.Errorf("GenerateTitle() = %q, want %q", got, "Ride 25.0km")
		}
	})

	t.Run("nil streams degrade to metadata", func(t *testing.T) {
		got := GenerateTitle(&Activity{Type: "Ride", Distance: 25000}, nil)
		if got != "Ride 25.0km" {
			t.Errorf("GenerateTitle() = %q, want %q", got, "Ride 25.0km")
		}
	})

	t.Run("short heart rate omitted, pace kept", func(t *testing.T) {
		streams := StreamSet{
			ChannelHeartrate: repeat(150, 5),
			ChannelVelocity:  repeat(3.125, 20),
		}
		got := GenerateTitle(&Activity{Type: "Run", Distance: 5000}, streams)
		if got != "Run 5.0km at 5:19 min/km" {
			t.Errorf("GenerateTitle() = %q, want %q", got, "Run 5.0km at 5:19 min/km")
		}
	})

	t.Run("full streams", func(t *testing.T) {
		// 150/200 bpm keeps most samples in zone 3
		hr := append(repeat(150, 18), 200, 200)
		streams := StreamSet{
			ChannelHeartrate: hr,
			ChannelVelocity:  repeat(3.125, 20),
			ChannelAltitude:  ramp(0, 12, 11),
			ChannelGrade:     repeat(2, 20),
		}
		got := GenerateTitle(&Activity{Type: "Run", Distance: 10000, ElapsedTime: 3200}, streams)
		want := "Tempo Hilly Run 10.0km at 5:19 min/km with 120m gain"
		if got != want {
			t.Errorf("GenerateTitle() = %q, want %q", got, want)
		}
	})

	t.Run("nil activity", func(t *testing.T) {
		if got := GenerateTitle(nil, StreamSet{ChannelVelocity: repeat(3, 20)}); got != DefaultTitle {
			t.Errorf("GenerateTitle(nil) = %q, want %q", got, DefaultTitle)
		}
	})
}

func TestComposeTitleNeverEmpty(t *testing.T) {
	activities := []*Activity{
		nil,
		{},
		{Type: "Run"},
		{Type: "Ride", Distance: math.Inf(1)},
		{Type: "Walk", Distance: -5},
	}
	for _, a := range activities {
		got := ComposeTitle(a, nil, nil, nil)
		if strings.TrimSpace(got) == "" {
			t.Errorf("ComposeTitle(%+v) returned an empty title", a)
		}
	}
}

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		activity *Activity
		expected string
	}{
		{nil, "Workout"},
		{&Activity{Type: "Run", Distance: 10000}, "Run 10.0km"},
		{&Activity{Distance: 1500}, "Workout 1.5km"},
		{&Activity{Type: "Ride", Distance: math.Inf(-1)}, "Workout"},
	}

	for _, tt := range tests {
		if got := FallbackTitle(tt.activity); got != tt.expected {
			t.Errorf("FallbackTitle(%+v) = %q, want %q", tt.activity, got, tt.expected)
		}
	}
}
