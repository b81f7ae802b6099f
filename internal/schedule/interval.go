package schedule

import (
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
)

// Interval is a half-open time range [Start, End). Both instants are UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval rejects zero-length and inverted ranges so that downstream
// logic never has to re-check them.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, model.ErrInvalidInterval
	}

	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps uses half-open semantics: touching endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
