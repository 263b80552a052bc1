package maprender

import (
	"context"
	"image"
	"image/color"

	"github.com/benmeehan/trailprint/pkg/location"
)

// Renderer draws an event's trail on a map of the requested pixel size. The trail
// follows the points in time order; markers sit on the first and last fix.
type Renderer interface {
	Render(ctx context.Context, ev location.Event, width, height int) (image.Image, error)
}

// Trail styling shared by all renderers.
var (
	TrailColor  = color.RGBA{R: 0xa5, G: 0x2a, B: 0x2a, A: 0xff} // brown
	StartColor  = color.RGBA{G: 0x99, A: 0xff}
	EndColor    = color.RGBA{R: 0xcc, A: 0xff}
	TrailWeight = 10
	MarkerSize  = 20
)
