package analysis

// Delta is the change to a user's lifetime counters produced by processing
// one activity. Callers apply it under their own transaction.
type Delta struct {
	Processed int
	Hidden    int
	Titled    int
}

// NewDelta returns the delta for one processed activity
func NewDelta(hidden, titled bool) Delta {
	d := Delta{Processed: 1}
	if hidden {
		d.Hidden = 1
	}
	if titled {
		d.Titled = 1
	}
	return d
}

// Decision is everything the engine concludes about one activity
type Decision struct {
	Hide     bool
	Title    string
	Analyses Analyses
	// Delta assumes every action is carried out
	Delta Delta
}

// Decide computes the hide decision and the generated title for an activity
func Decide(activity *Activity, streams StreamSet, thresholds Thresholds) Decision {
	if activity == nil {
		return Decision{Title: DefaultTitle, Delta: NewDelta(false, true)}
	}

	a := Analyze(activity, streams)
	hide := ShouldHide(activity.Type, activity.ElapsedTime, thresholds)
	title := ComposeTitle(activity, a.HeartRate, a.Pace, a.Elevation)

	return Decision{
		Hide:     hide,
		Title:    title,
		Analyses: a,
		Delta:    NewDelta(hide, true),
	}
}
