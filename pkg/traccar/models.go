package traccar

import "github.com/benmeehan/trailprint/pkg/location"

// timestampLayout is always UTC with a literal Z; the server ignores numeric offsets.
const timestampLayout = "2006-01-02T15:04:05Z"

// Payload is the body accepted by the Traccar OsmAnd/JSON location endpoint.
type Payload struct {
	Location Report `json:"location"`
	DeviceID string `json:"device_id"`
}

// Report describes a single fix in the format used by background-geolocation clients.
type Report struct {
	Timestamp string         `json:"timestamp"`
	Coords    Coords         `json:"coords"`
	IsMoving  bool           `json:"is_moving"`
	Event     string         `json:"event"`
	Battery   Battery        `json:"battery"`
	Activity  Activity       `json:"activity"`
	Extras    map[string]any `json:"extras"`
}

// Coords holds the position part of a report.
type Coords struct {
	Latitude  float64 `json:"latitude"`  // degrees
	Longitude float64 `json:"longitude"` // degrees
	Accuracy  float64 `json:"accuracy"`  // meters
	Speed     float64 `json:"speed"`     // m/s
	Heading   float64 `json:"heading"`   // degrees
	Altitude  float64 `json:"altitude"`  // meters
}

type Battery struct {
	Level      float64 `json:"level"`
	IsCharging bool    `json:"is_charging"`
}

type Activity struct {
	Type string `json:"type"`
}

// NewPayload converts a point into the fixed push body for deviceID.
func NewPayload(deviceID string, p location.Point) Payload {
	return Payload{
		Location: Report{
			Timestamp: p.Time.UTC().Format(timestampLayout),
			Coords: Coords{
				Latitude:  p.Lat,
				Longitude: p.Lon,
				Accuracy:  p.Acc,
				Speed:     p.Speed,
				Heading:   p.Head,
				Altitude:  p.Alt,
			},
			IsMoving: false,
			Event:    "motionchange",
			Battery:  Battery{Level: 1, IsCharging: false},
			Activity: Activity{Type: "still"},
			Extras:   map[string]any{},
		},
		DeviceID: deviceID,
	}
}
