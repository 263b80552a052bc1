package maprender

import (
	"context"
	"fmt"
	"image"

	"github.com/benmeehan/trailprint/pkg/location"
	"googlemaps.github.io/maps"
)

// maxStaticMapSize is the largest edge, in pixels, the Static Maps API accepts at scale 1.
const maxStaticMapSize = 640

// GoogleRenderer renders trails with the Google Static Maps API.
type GoogleRenderer struct {
	client *maps.Client // Maps API client for static map requests
}

// NewGoogleRenderer creates a GoogleRenderer. Extra options (e.g. maps.WithBaseURL)
// are passed to the Maps client.
func NewGoogleRenderer(apiKey string, opts ...maps.ClientOption) (*GoogleRenderer, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &GoogleRenderer{
		client: c,
	}, nil
}

// Render implements Renderer. Sizes above the API limit are scaled down keeping the
// aspect ratio and requested at scale 2.
func (g *GoogleRenderer) Render(ctx context.Context, ev location.Event, width, height int) (image.Image, error) {
	start, end, err := ev.Endpoints()
	if err != nil {
		return nil, err
	}

	w, h, scale := fitStaticSize(width, height)

	points := ev.Chronological()
	trail := make([]maps.LatLng, 0, len(points))
	for _, p := range points {
		trail = append(trail, maps.LatLng{Lat: p.Lat, Lng: p.Lon})
	}

	req := &maps.StaticMapRequest{
		Size:  fmt.Sprintf("%dx%d", w, h),
		Scale: scale,
		Markers: []maps.Marker{
			{Color: hexColor(StartColor), Label: "S", Location: []maps.LatLng{{Lat: start.Lat, Lng: start.Lon}}},
			{Color: hexColor(EndColor), Label: "E", Location: []maps.LatLng{{Lat: end.Lat, Lng: end.Lon}}},
		},
	}
	if len(trail) > 1 {
		req.Paths = []maps.Path{{
			Color:    hexColor(TrailColor),
			Weight:   TrailWeight,
			Location: trail,
		}}
	}

	img, err := g.client.StaticMap(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to render Google static map: %w", err)
	}
	return img, nil
}

func fitStaticSize(width, height int) (w, h, scale int) {
	if width <= maxStaticMapSize && height <= maxStaticMapSize {
		return width, height, 1
	}

	w, h = (width+1)/2, (height+1)/2
	if longest := max(w, h); longest > maxStaticMapSize {
		w = w * maxStaticMapSize / longest
		h = h * maxStaticMapSize / longest
	}
	return w, h, 2
}

func hexColor(c interface{ RGBA() (r, g, b, a uint32) }) string {
	r, g, b, a := c.RGBA()
	return fmt.Sprintf("0x%02x%02x%02x%02x", r>>8, g>>8, b>>8, a>>8)
}
