package analysis

import (
	"reflect"
	"testing"
)

func TestAnalyzeElevation(t *testing.T) {
	tests := []struct {
		name     string
		altitude []float64
		wantOK   bool
		expected ElevationAnalysis
	}{
		{
			name:     "fewer than ten samples",
			altitude: ramp(0, 50, 9),
			wantOK:   false,
		},
		{
			name:     "flat",
			altitude: repeat(120, 30),
			wantOK:   true,
			expected: ElevationAnalysis{},
		},
		{
			name:     "monotonic rise under ten meters never records a climb",
			altitude: ramp(0, 1, 10),
			wantOK:   true,
			expected: ElevationAnalysis{TotalGain: 9},
		},
		{
			name:     "monotonic rise over ten meters is one unterminated climb",
			altitude: ramp(0, 2, 10),
			wantOK:   true,
			expected: ElevationAnalysis{TotalGain: 18, BiggestClimb: 18, NumSignificantClimbs: 1},
		},
		{
			name:     "climb closed by a real descent",
			altitude: []float64{0, 5, 10, 15, 20, 25, 20, 20, 20, 20},
			wantOK:   true,
			expected: ElevationAnalysis{TotalGain: 25, BiggestClimb: 25, NumSignificantClimbs: 1},
		},
		{
			name:     "small dip inside a climb is tolerated",
			altitude: []float64{0, 6, 12, 11.5, 17.5, 23.5, 23.5, 23.5, 23.5, 23.5},
			wantOK:   true,
			expected: ElevationAnalysis{TotalGain: 24, BiggestClimb: 24, NumSignificantClimbs: 1},
		},
		{
			name:     "short rise followed by a dip is discarded as noise",
			altitude: []float64{0, 2, 4, 3, 5, 7, 9, 11, 11, 11},
			wantOK:   true,
			expected: ElevationAnalysis{TotalGain: 12},
		},
		{
			name:     "two separate climbs",
			altitude: []float64{0, 10, 20, 10, 0, 15, 30, 45, 40, 40},
			wantOK:   true,
			expected: ElevationAnalysis{TotalGain: 65, BiggestClimb: 45, NumSignificantClimbs: 2},
		},
		{
			name:     "hilly but not mountain",
			altitude: ramp(0, 12, 11),
			wantOK:   true,
			expected: ElevationAnalysis{TotalGain: 120, BiggestClimb: 120, IsHilly: true, NumSignificantClimbs: 1},
		},
		{
			name:     "mountain",
			altitude: ramp(1000, 40, 11),
			wantOK:   true,
			expected: ElevationAnalysis{TotalGain: 400, BiggestClimb: 400, IsHilly: true, IsMountain: true, NumSignificantClimbs: 1},
		},
		{
			name:     "rolling terrain is hilly without a big climb",
			altitude: []float64{0, 30, 0, 30, 0, 30, 0, 30, 0, 30},
			wantOK:   true,
			expected: ElevationAnalysis{TotalGain: 150, BiggestClimb: 30, IsHilly: true, NumSignificantClimbs: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AnalyzeElevation(tt.altitude)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got != tt.expected {
				t.Errorf("AnalyzeElevation() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestAnalyzeElevationIdempotentUnderFlatPadding(t *testing.T) {
	series := [][]float64{
		ramp(0, 2, 10),
		{0, 5, 10, 15, 20, 25, 20, 20, 20, 20},
		{0, 2, 4, 3, 5, 7, 9, 11, 13, 15},
		{0, 10, 20, 10, 0, 15, 30, 45, 40, 40},
		{100, 90, 80, 85, 99, 120, 118, 140, 160, 155, 170},
	}

	for i, altitude := range series {
		before, ok := AnalyzeElevation(altitude)
		if !ok {
			t.Fatalf("series %d: expected analysis", i)
		}
		padded := append(append([]float64(nil), altitude...), altitude[len(altitude)-1])
		after, ok := AnalyzeElevation(padded)
		if !ok {
			t.Fatalf("series %d: expected analysis after padding", i)
		}
		if before != after {
			t.Errorf("series %d: padding changed result: %+v -> %+v", i, before, after)
		}
	}
}

func TestSegmentClimbs(t *testing.T) {
	got := SegmentClimbs([]float64{0, 10, 20, 10, 0, 15, 30, 45, 40, 40})
	want := []float64{20, 45}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SegmentClimbs() = %v, want %v", got, want)
	}

	if got := SegmentClimbs(nil); got != nil {
		t.Errorf("SegmentClimbs(nil) = %v, want nil", got)
	}
}
