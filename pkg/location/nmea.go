package location

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
)

const knotsToMetersPerSecond = 0.514444

// ParseNMEA builds an event from an NMEA 0183 log. Every valid RMC sentence becomes a
// point; a GGA sentence carrying the same fix time contributes altitude and uses HDOP
// as a proxy for accuracy. Lines that do not parse are skipped.
func ParseNMEA(deviceID string, r io.Reader) (Event, error) {
	var (
		points  []Point
		byFix   = make(map[nmea.Time]int)
		pending = make(map[nmea.Time]nmea.GGA)
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}

		switch s := sentence.(type) {
		case nmea.RMC:
			if s.Validity != nmea.ValidRMC || !s.Date.Valid || !s.Time.Valid {
				continue
			}
			p := Point{
				Time:  fixTime(s.Date, s.Time),
				Lat:   s.Latitude,
				Lon:   s.Longitude,
				Acc:   DefaultAccuracy,
				Speed: s.Speed * knotsToMetersPerSecond,
				Head:  s.Course,
			}
			if gga, ok := pending[s.Time]; ok {
				applyGGA(&p, gga)
				delete(pending, s.Time)
			}
			points = append(points, p)
			byFix[s.Time] = len(points) - 1

		case nmea.GGA:
			if s.FixQuality == nmea.Invalid || !s.Time.Valid {
				continue
			}
			if i, ok := byFix[s.Time]; ok {
				applyGGA(&points[i], s)
			} else {
				pending[s.Time] = s
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("failed to read NMEA input: %w", err)
	}
	if len(points) == 0 {
		return Event{}, fmt.Errorf("no valid RMC fix found: %w", ErrEmptySequence)
	}

	return Event{DeviceID: deviceID, Points: points}, nil
}

func applyGGA(p *Point, gga nmea.GGA) {
	p.Alt = gga.Altitude
	if gga.HDOP > 0 {
		p.Acc = gga.HDOP
	}
}

func fixTime(d nmea.Date, t nmea.Time) time.Time {
	return time.Date(2000+d.YY, time.Month(d.MM), d.DD,
		t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}
