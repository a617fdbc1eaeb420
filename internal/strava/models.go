package strava

import (
	"time"

	"strava-filter/internal/analysis"
)

// Activity represents a Strava activity from the API
type Activity struct {
	ID                 int64     `json:"id"`
	Athlete            Athlete   `json:"athlete"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	Distance           float64   `json:"distance"`             // meters
	MovingTime         int       `json:"moving_time"`          // seconds
	ElapsedTime        int       `json:"elapsed_time"`         // seconds
	TotalElevationGain float64   `json:"total_elevation_gain"` // meters
	AverageSpeed       float64   `json:"average_speed"`        // m/s
	MaxSpeed           float64   `json:"max_speed"`            // m/s
	AverageHeartrate   float64   `json:"average_heartrate"`    // bpm
	MaxHeartrate       float64   `json:"max_heartrate"`        // bpm
	HasHeartrate       bool      `json:"has_heartrate"`
	HideFromHome       bool      `json:"hide_from_home"`
}

// Athlete represents a Strava athlete (minimal info in activity response)
type Athlete struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Snapshot returns the metadata the decision engine reads
func (a *Activity) Snapshot() *analysis.Activity {
	if a == nil {
		return nil
	}
	return &analysis.Activity{
		ID:          a.ID,
		Name:        a.Name,
		Type:        a.Type,
		Distance:    a.Distance,
		ElapsedTime: a.ElapsedTime,
	}
}

// ActivityUpdate is the body of PUT /activities/{id}. Nil fields are left unchanged.
type ActivityUpdate struct {
	Name         *string `json:"name,omitempty"`
	HideFromHome *bool   `json:"hide_from_home,omitempty"`
}

// Streams represents activity stream data from the API
// Strava returns streams keyed by type when key_by_type=true
type Streams struct {
	Time           *StreamData[int]     `json:"time"`
	Heartrate      *StreamData[float64] `json:"heartrate"`
	VelocitySmooth *StreamData[float64] `json:"velocity_smooth"`
	Altitude       *StreamData[float64] `json:"altitude"`
	Cadence        *StreamData[float64] `json:"cadence"`
	Watts          *StreamData[float64] `json:"watts"`
	GradeSmooth    *StreamData[float64] `json:"grade_smooth"`
}

// StreamData represents a single stream type
type StreamData[T any] struct {
	Data         []T    `json:"data"`
	SeriesType   string `json:"series_type"`
	OriginalSize int    `json:"original_size"`
	Resolution   string `json:"resolution"`
}

// Len returns the length of the stream, or 0 if nil
func (s *Streams) Len() int {
	if s == nil || s.Time == nil {
		return 0
	}
	return len(s.Time.Data)
}

// SampleSet converts the channels the analyzers use into an analysis.StreamSet.
// Missing channels are left out.
func (s *Streams) SampleSet() analysis.StreamSet {
	set := analysis.StreamSet{}
	if s == nil {
		return set
	}
	channels := map[string]*StreamData[float64]{
		analysis.ChannelHeartrate: s.Heartrate,
		analysis.ChannelVelocity:  s.VelocitySmooth,
		analysis.ChannelAltitude:  s.Altitude,
		analysis.ChannelGrade:     s.GradeSmooth,
	}
	for name, stream := range channels {
		if stream != nil && len(stream.Data) > 0 {
			set[name] = stream.Data
		}
	}
	return set
}

// Subscription is a webhook push subscription
type Subscription struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	CallbackURL   string    `json:"callback_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
