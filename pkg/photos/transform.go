package photos

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Transform is a pixel-space operation applied before a photo is cached. Name must be
// stable across restarts and unique per configuration since it is part of the cache key.
type Transform interface {
	Name() string
	Apply(img image.Image) image.Image
}

// SquareResize resizes to Size x Size with a Lanczos filter, ignoring aspect ratio.
type SquareResize struct {
	Size int
}

func (t SquareResize) Name() string {
	return fmt.Sprintf("square%d", t.Size)
}

func (t SquareResize) Apply(img image.Image) image.Image {
	return imaging.Resize(img, t.Size, t.Size, imaging.Lanczos)
}

// AspectCrop scales the image, preserving its aspect ratio, until it covers
// Width x Height and then crops the centre to exactly that size.
type AspectCrop struct {
	Width  int
	Height int
}

func (t AspectCrop) Name() string {
	return fmt.Sprintf("aspect%dx%d", t.Width, t.Height)
}

func (t AspectCrop) Apply(img image.Image) image.Image {
	return imaging.Fill(img, t.Width, t.Height, imaging.Center, imaging.Lanczos)
}

// Photo frame on the printed page, in inches.
const (
	PageFrameWidth  = 2.167
	PageFrameHeight = 2.25
)

// pageFrameScale is the pixel density (points per inch times five) of the cached page photo.
const pageFrameScale = 72 * 5

// PageFrame returns the crop used for the photo frame of the printed page.
func PageFrame() AspectCrop {
	return AspectCrop{
		Width:  int(math.Round(PageFrameWidth * pageFrameScale)),
		Height: int(math.Round(PageFrameHeight * pageFrameScale)),
	}
}

// ParseTransform reads a transform from configuration: "square:<size>",
// "aspect:<w>x<h>" or "page".
func ParseTransform(s string) (Transform, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(s), ":")

	switch kind {
	case "page", "":
		return PageFrame(), nil
	case "square":
		size, err := strconv.Atoi(arg)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid square size %q", arg)
		}
		return SquareResize{Size: size}, nil
	case "aspect":
		ws, hs, ok := strings.Cut(arg, "x")
		w, errW := strconv.Atoi(ws)
		h, errH := strconv.Atoi(hs)
		if !ok || errW != nil || errH != nil || w <= 0 || h <= 0 {
			return nil, fmt.Errorf("invalid aspect size %q", arg)
		}
		return AspectCrop{Width: w, Height: h}, nil
	default:
		return nil, fmt.Errorf("unknown transform %q", kind)
	}
}
