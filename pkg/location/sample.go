package location

import "time"

// SampleEvent returns a fixed six-point trail through Manhattan, used for smoke tests.
func SampleEvent() Event {
	start := time.Date(2025, time.July, 21, 10, 0, 0, 0, time.UTC)

	return Event{
		DeviceID: "dummy_device",
		Points: []Point{
			NewPoint(start, 40.7128, -74.0060),                     // Times Square
			NewPoint(start.Add(10*time.Minute), 40.7580, -73.9855), // Central Park
			NewPoint(start.Add(20*time.Minute), 40.7306, -73.9352), // East Village
			NewPoint(start.Add(30*time.Minute), 40.7061, -74.0089), // Financial District
			NewPoint(start.Add(40*time.Minute), 40.6892, -74.0445), // Statue of Liberty
			NewPoint(start.Add(50*time.Minute), 40.748817, -73.985428), // Empire State Building
		},
	}
}
