package location_test

import (
	"strings"
	"testing"
	"time"

	"github.com/benmeehan/trailprint/pkg/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nmeaLog = `$GPGGA,092750.000,5321.6802,N,00630.3372,W,1,8,1.03,61.7,M,55.2,M,,*76
$GPRMC,092750.000,A,5321.6802,N,00630.3372,W,0.02,31.66,280511,,,A*43
garbage line
$GPRMC,092751.000,A,5321.6802,N,00630.3371,W,0.06,31.66,280511,,,A*45
$GPRMC,092752.000,V,5321.6802,N,00630.3371,W,0.06,31.66,280511,,,A*51
`

func TestParseNMEA(t *testing.T) {
	ev, err := location.ParseNMEA("gps-1", strings.NewReader(nmeaLog))
	require.NoError(t, err)

	assert.Equal(t, "gps-1", ev.DeviceID)
	require.Len(t, ev.Points, 2)

	first := ev.Points[0]
	assert.Equal(t, time.Date(2011, time.May, 28, 9, 27, 50, 0, time.UTC), first.Time)
	assert.InDelta(t, 53.361336, first.Lat, 1e-5)
	assert.InDelta(t, -6.505620, first.Lon, 1e-5)
	assert.InDelta(t, 61.7, first.Alt, 1e-9)
	assert.InDelta(t, 1.03, first.Acc, 1e-9)
	assert.InDelta(t, 31.66, first.Head, 1e-9)
	assert.InDelta(t, 0.02*0.514444, first.Speed, 1e-9)

	// No GGA for the second fix, so defaults stay in place
	assert.Equal(t, location.DefaultAccuracy, ev.Points[1].Acc)
	assert.Equal(t, 0.0, ev.Points[1].Alt)
}

func TestParseNMEA_NoFix(t *testing.T) {
	_, err := location.ParseNMEA("gps-1", strings.NewReader("not nmea\n"))
	assert.ErrorIs(t, err, location.ErrEmptySequence)
}
