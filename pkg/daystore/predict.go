package daystore

import (
	"math"

	"github.com/m72elite/m72/pkg/calendar"
)

// ProjectionStatus tells how a Projection should be read.
type ProjectionStatus string

const (
	InsufficientData ProjectionStatus = "insufficient-data"
	Steady           ProjectionStatus = "steady"
	Reached          ProjectionStatus = "reached"
	Projected        ProjectionStatus = "projected"
)

// Projection estimates when the target weight is reached.
type Projection struct {
	Status    ProjectionStatus `json:"status"`
	Samples   int              `json:"samples"`
	Earliest  float64          `json:"earliest,omitempty"`
	Latest    float64          `json:"latest,omitempty"`
	Target    float64          `json:"target"`
	Velocity  float64          `json:"velocity,omitempty"`
	DaysAhead int              `json:"daysAhead,omitempty"`
	Date      string           `json:"date,omitempty"`
}

// Project computes a Projection from chronological samples. Velocity is the
// total loss divided by the number of samples, not by elapsed days.
func Project(samples []WeightSample, target float64, today calendar.Date) Projection {
	p := Projection{Status: InsufficientData, Samples: len(samples), Target: target}
	if len(samples) < 2 {
		return p
	}
	p.Earliest = samples[0].Value
	p.Latest = samples[len(samples)-1].Value
	p.Velocity = (p.Earliest - p.Latest) / float64(len(samples))

	if p.Latest <= target {
		p.Status = Reached
		p.Date = today.String()
		return p
	}
	if p.Velocity <= 0 {
		p.Status = Steady
		return p
	}
	p.Status = Projected
	p.DaysAhead = int(math.Ceil((p.Latest - target) / p.Velocity))
	p.Date = today.AddDays(p.DaysAhead).String()
	return p
}

// PredictGoal projects the recorded weight history towards target.
func (s *Store) PredictGoal(target float64) Projection {
	s.mu.Lock()
	samples := weightSamples(s.doc.WeightHistory)
	s.mu.Unlock()
	return Project(samples, target, s.today())
}
