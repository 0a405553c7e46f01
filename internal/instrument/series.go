package instrument

import "time"

// Point is one (time, value) observation in a Series.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is an ordered, append-only sequence of observations. Histories grow
// for the life of a run; only the most recent samples drive decisions, the
// rest is retained for inspection.
type Series struct {
	points []Point
}

func (s *Series) Append(t time.Time, v float64) {
	s.points = append(s.points, Point{Time: t, Value: v})
}

func (s *Series) Len() int {
	return len(s.points)
}

// Last returns the most recent point, or false if the series is empty.
func (s *Series) Last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

func (s *Series) At(i int) Point {
	return s.points[i]
}

// Values copies out the observed values in order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}
