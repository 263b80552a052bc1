package location

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrEmptySequence is returned by derived metrics that need at least one point.
var ErrEmptySequence = errors.New("event has no points")

// TimeSpan returns the time between the earliest and the latest point,
// independent of arrival order.
func (e Event) TimeSpan() (time.Duration, error) {
	if len(e.Points) == 0 {
		return 0, ErrEmptySequence
	}

	minTime, maxTime := e.Points[0].Time, e.Points[0].Time
	for _, p := range e.Points[1:] {
		if p.Time.Before(minTime) {
			minTime = p.Time
		}
		if p.Time.After(maxTime) {
			maxTime = p.Time
		}
	}
	return maxTime.Sub(minTime), nil
}

// TotalDistance returns the distance in miles travelled along the points
// taken in time order. Zero or one point yields 0.
func (e Event) TotalDistance() float64 {
	points := e.sorted(func(a, b Point) bool { return a.Time.After(b.Time) })

	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i-1].DistanceTo(points[i])
	}
	return total
}

// Chronological returns a copy of the points sorted by ascending time.
func (e Event) Chronological() []Point {
	return e.sorted(func(a, b Point) bool { return a.Time.Before(b.Time) })
}

// Endpoints returns the chronologically first and last points.
func (e Event) Endpoints() (start, end Point, err error) {
	if len(e.Points) == 0 {
		return Point{}, Point{}, ErrEmptySequence
	}
	points := e.Chronological()
	return points[0], points[len(points)-1], nil
}

// Validate checks the event before it is processed. An event without points is valid;
// operations that need points report ErrEmptySequence themselves.
func (e Event) Validate() error {
	if e.DeviceID == "" {
		return errors.New("device_id: required")
	}

	var errs []error
	for i, p := range e.Points {
		if p.Lat < -90 || p.Lat > 90 {
			errs = append(errs, fmt.Errorf("points[%d].lat: %v out of range [-90, 90]", i, p.Lat))
		}
		if p.Lon < -180 || p.Lon > 180 {
			errs = append(errs, fmt.Errorf("points[%d].lon: %v out of range [-180, 180]", i, p.Lon))
		}
		if p.Acc < 0 {
			errs = append(errs, fmt.Errorf("points[%d].acc: must not be negative", i))
		}
		if p.Time.IsZero() {
			errs = append(errs, fmt.Errorf("points[%d].time: required", i))
		}
	}
	return errors.Join(errs...)
}

func (e Event) sorted(less func(a, b Point) bool) []Point {
	points := make([]Point, len(e.Points))
	copy(points, e.Points)
	sort.SliceStable(points, func(i, j int) bool { return less(points[i], points[j]) })
	return points
}
