package services

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/benmeehan/trailprint/pkg/location"
	"github.com/benmeehan/trailprint/pkg/maprender"
	"github.com/benmeehan/trailprint/pkg/photos"
	"github.com/go-pdf/fpdf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Page geometry in inches, US Letter portrait.
const (
	pageMargin    = 0.5
	pageWidth     = 8.5
	mapTop        = 1.2
	mapBoxHeight  = 5.0
	summaryTop    = mapTop + mapBoxHeight + 0.3
	lineHeight    = 0.3
	reportTitle   = "Trip Report"
	displayLayout = "Mon Jan 2, 2006 15:04 MST"

	photoImageName = "photo"
)

// PageGenerator lays out a report for an event.
type PageGenerator interface {
	Generate(ctx context.Context, ev location.Event) (*Document, error)
}

// Document is a rendered PDF held in a pooled buffer. Call Release once the bytes are no
// longer needed; Bytes must not be used afterwards.
type Document struct {
	buf     *bytes.Buffer
	once    sync.Once
	release func()
}

// NewDocument wraps buf. release, if not nil, runs once on the first call to Release.
func NewDocument(buf *bytes.Buffer, release func()) *Document {
	return &Document{buf: buf, release: release}
}

// Bytes returns the PDF contents.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

// Len returns the PDF size in bytes.
func (d *Document) Len() int {
	return d.buf.Len()
}

// Release hands the buffer back. It is safe to call more than once.
func (d *Document) Release() {
	d.once.Do(func() {
		if d.release != nil {
			d.release()
		}
		d.buf = &bytes.Buffer{}
	})
}

// PageService renders the map, trip summary and a photo onto a single page.
type PageService struct {
	renderer  maprender.Renderer
	photos    photos.Source
	logger    zerolog.Logger
	mapWidth  int
	mapHeight int
	timer     prometheus.Observer
	pool      sync.Pool
}

// NewPageService creates a new PageService. photoSource may be nil, in which case the photo
// frame is left empty. timer may be nil.
func NewPageService(renderer maprender.Renderer, photoSource photos.Source, mapWidth, mapHeight int,
	timer prometheus.Observer, logger zerolog.Logger) *PageService {
	return &PageService{
		renderer:  renderer,
		photos:    photoSource,
		logger:    logger,
		mapWidth:  mapWidth,
		mapHeight: mapHeight,
		timer:     timer,
		pool: sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
	}
}

// Generate renders ev into a new Document. A failed map render fails the page; a missing
// photo is logged and the page is produced without it.
func (s *PageService) Generate(ctx context.Context, ev location.Event) (*Document, error) {
	if s.timer != nil {
		timer := prometheus.NewTimer(s.timer)
		defer timer.ObserveDuration()
	}

	start, end, err := ev.Endpoints()
	if err != nil {
		return nil, err
	}
	elapsed, err := ev.TimeSpan()
	if err != nil {
		return nil, err
	}

	trail, err := s.renderer.Render(ctx, ev, s.mapWidth, s.mapHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to render map: %w", err)
	}

	var mapPNG bytes.Buffer
	if err := png.Encode(&mapPNG, trail); err != nil {
		return nil, fmt.Errorf("failed to encode map: %w", err)
	}

	pdf := fpdf.New("P", "in", "Letter", "")
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator("trailprint", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 0.5, reportTitle, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 0.3, tr(start.Time.Format("Monday, January 2, 2006")), "", 1, "L", false, 0, "")

	mapW := pageWidth - 2*pageMargin
	pdf.RegisterImageOptionsReader("map", fpdf.ImageOptions{ImageType: "PNG"}, &mapPNG)
	pdf.ImageOptions("map", pageMargin, mapTop, mapW, mapBoxHeight, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	summary := [][2]string{
		{"Device", ev.DeviceID},
		{"Distance", fmt.Sprintf("%.2f mi", ev.TotalDistance())},
		{"Elapsed", formatElapsed(elapsed)},
		{"Started", start.Time.Format(displayLayout)},
		{"Finished", end.Time.Format(displayLayout)},
		{"Points", fmt.Sprintf("%d", len(ev.Points))},
	}
	pdf.SetXY(pageMargin, summaryTop)
	for _, row := range summary {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(1.1, lineHeight, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(3.0, lineHeight, tr(row[1]), "", 1, "L", false, 0, "")
	}

	s.placePhoto(ctx, pdf)

	buf := s.pool.Get().(*bytes.Buffer)
	doc := NewDocument(buf, func() {
		buf.Reset()
		s.pool.Put(buf)
	})
	if err := pdf.Output(doc.buf); err != nil {
		doc.Release()
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	s.logger.Info().
		Str("device_id", ev.DeviceID).
		Int("bytes", doc.Len()).
		Msg("Generated report page")

	return doc, nil
}

// placePhoto puts a random album photo in the lower right frame. A photo that cannot be
// read or decoded is logged and the frame is left empty.
func (s *PageService) placePhoto(ctx context.Context, pdf *fpdf.Fpdf) {
	if s.photos == nil || !pdf.Ok() {
		return
	}

	path, err := s.photos.RandomPhoto(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("No photo for report page")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to read photo for report page")
		return
	}

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader(photoImageName, opts, bytes.NewReader(data))
	if err := pdf.Error(); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable photo on report page")
		pdf.ClearError()
		return
	}

	x := pageWidth - pageMargin - photos.PageFrameWidth
	pdf.ImageOptions(photoImageName, x, summaryTop, photos.PageFrameWidth, photos.PageFrameHeight, false, opts, 0, "")
}
