package maprender

import (
	"context"
	"fmt"
	"image"

	"github.com/benmeehan/trailprint/pkg/location"
	sm "github.com/flopp/go-staticmaps"
	"github.com/golang/geo/s2"
)

// OSMRenderer renders trails on OpenStreetMap tiles.
type OSMRenderer struct {
	tiles *sm.TileProvider
}

// NewOSMRenderer creates a renderer using the public OpenStreetMap tile server.
func NewOSMRenderer() *OSMRenderer {
	return &OSMRenderer{tiles: sm.NewTileProviderOpenStreetMaps()}
}

// Render implements Renderer. Tile fetching is not cancellable once started.
func (r *OSMRenderer) Render(ctx context.Context, ev location.Event, width, height int) (image.Image, error) {
	start, end, err := ev.Endpoints()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := sm.NewContext()
	m.SetSize(width, height)
	m.SetTileProvider(r.tiles)

	points := ev.Chronological()
	if len(points) > 1 {
		trail := make([]s2.LatLng, 0, len(points))
		for _, p := range points {
			trail = append(trail, s2.LatLngFromDegrees(p.Lat, p.Lon))
		}
		m.AddObject(sm.NewPath(trail, TrailColor, float64(TrailWeight)))
	}
	m.AddObject(sm.NewMarker(s2.LatLngFromDegrees(start.Lat, start.Lon), StartColor, float64(MarkerSize)))
	m.AddObject(sm.NewMarker(s2.LatLngFromDegrees(end.Lat, end.Lon), EndColor, float64(MarkerSize)))

	img, err := m.Render()
	if err != nil {
		return nil, fmt.Errorf("failed to render OSM map: %w", err)
	}
	return img, nil
}
