package location

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultAccuracy is applied to points that arrive without an accuracy value.
const DefaultAccuracy = 2.0

// naiveTimeLayouts accept timestamps without a zone designator; they are read as UTC.
var naiveTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Point is a single timestamped location sample reported by a device.
type Point struct {
	Time  time.Time `json:"time"`  // Fix time (UTC)
	Lat   float64   `json:"lat"`   // Latitude in degrees
	Lon   float64   `json:"lon"`   // Longitude in degrees
	Acc   float64   `json:"acc"`   // Accuracy in meters
	Speed float64   `json:"speed"` // Speed in m/s
	Head  float64   `json:"head"`  // Heading in degrees
	Alt   float64   `json:"alt"`   // Altitude in meters
}

// Event is the ordered set of points reported by one device, kept in arrival order.
type Event struct {
	Points   []Point `json:"points"`
	DeviceID string  `json:"device_id"`
}

// NewPoint returns a point at the given time and position with the default accuracy.
func NewPoint(t time.Time, lat, lon float64) Point {
	return Point{Time: t.UTC(), Lat: lat, Lon: lon, Acc: DefaultAccuracy}
}

// UnmarshalJSON decodes a point, defaulting acc to DefaultAccuracy. The time may be an
// RFC 3339 string, a zoneless string read as UTC, or a number of Unix seconds.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw struct {
		Time  json.RawMessage `json:"time"`
		Lat   float64         `json:"lat"`
		Lon   float64         `json:"lon"`
		Acc   *float64        `json:"acc"`
		Speed float64         `json:"speed"`
		Head  float64         `json:"head"`
		Alt   float64         `json:"alt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t, err := decodeTime(raw.Time)
	if err != nil {
		return err
	}

	*p = Point{
		Time:  t,
		Lat:   raw.Lat,
		Lon:   raw.Lon,
		Acc:   DefaultAccuracy,
		Speed: raw.Speed,
		Head:  raw.Head,
		Alt:   raw.Alt,
	}
	if raw.Acc != nil {
		p.Acc = *raw.Acc
	}
	return nil
}

func decodeTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, fmt.Errorf("time: required")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("time: %w", err)
		}
		return parseTime(s)
	}

	var secs float64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return time.Time{}, fmt.Errorf("time: invalid timestamp %s", raw)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time: required")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	var err error
	for _, layout := range naiveTimeLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("time: invalid timestamp %q: %w", s, err)
}
