// Package fitfile reads activity metadata and sample streams from FIT files
// recorded by Garmin and similar devices.
package fitfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/tormoder/fit"

	"strava-filter/internal/analysis"
)

// ErrNoSession is returned for activity files without a session message
var ErrNoSession = errors.New("activity file has no session message")

// Load decodes the FIT file at path. The activity is named after the file.
func Load(path string) (*analysis.Activity, analysis.StreamSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Decode(f, name)
}

// Decode reads a FIT activity from r
func Decode(r io.Reader, name string) (*analysis.Activity, analysis.StreamSet, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, nil, fmt.Errorf("decode FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, nil, ErrNoSession
	}

	a, streams := convert(name, activity.Sessions[0], activity.Records)
	return a, streams, nil
}

func convert(name string, session *fit.SessionMsg, records []*fit.RecordMsg) (*analysis.Activity, analysis.StreamSet) {
	elapsed := finiteOrZero(session.GetTotalElapsedTimeScaled())
	if elapsed == 0 {
		elapsed = finiteOrZero(session.GetTotalTimerTimeScaled())
	}

	a := &analysis.Activity{
		Name:        name,
		Type:        SportType(session.Sport),
		Distance:    finiteOrZero(session.GetTotalDistanceScaled()),
		ElapsedTime: int(elapsed),
	}

	var hr, speed, altitude []float64
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if v, ok := heartRate(rec); ok {
			hr = append(hr, v)
		}
		if v, ok := speedOf(rec); ok {
			speed = append(speed, v)
		}
		if v, ok := altitudeOf(rec); ok {
			altitude = append(altitude, v)
		}
	}

	streams := analysis.StreamSet{}
	if len(hr) > 0 {
		streams[analysis.ChannelHeartrate] = hr
	}
	if len(speed) > 0 {
		streams[analysis.ChannelVelocity] = speed
	}
	if len(altitude) > 0 {
		streams[analysis.ChannelAltitude] = altitude
	}
	return a, streams
}

// SportType maps a FIT sport to the Strava activity type the hide policy
// uses. Sports without a Strava equivalent map to "".
func SportType(s fit.Sport) string {
	switch s {
	case fit.SportRunning:
		return "Run"
	case fit.SportCycling:
		return "Ride"
	case fit.SportWalking:
		return "Walk"
	case fit.SportHiking:
		return "Hike"
	case fit.SportSwimming:
		return "Swim"
	default:
		return ""
	}
}

func heartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.HeartRate), true
}

func speedOf(rec *fit.RecordMsg) (float64, bool) {
	speed := rec.GetEnhancedSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	speed = rec.GetSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	return 0, false
}

func altitudeOf(rec *fit.RecordMsg) (float64, bool) {
	alt := rec.GetEnhancedAltitudeScaled()
	if isFinite(alt) {
		return alt, true
	}
	alt = rec.GetAltitudeScaled()
	if isFinite(alt) {
		return alt, true
	}
	return 0, false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOrZero(v float64) float64 {
	if !isFinite(v) || v < 0 {
		return 0
	}
	return v
}
