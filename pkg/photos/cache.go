package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"math/rand/v2"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/benmeehan/trailprint/pkg/file"
	http_utils "github.com/benmeehan/trailprint/pkg/httpUtils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"
)

// jpegQuality matches the usual default of image libraries for baseline JPEG.
const jpegQuality = 75

// ErrEmptyAlbum is returned by RandomPhoto when the album has no assets.
var ErrEmptyAlbum = errors.New("album has no assets")

// ErrInvalidPhotoID is returned for asset ids that cannot be used as a cache file name.
var ErrInvalidPhotoID = errors.New("invalid photo id")

// StatusError is a non-200 answer from the photo API.
type StatusError = http_utils.StatusError

// CacheWriteError reports a filesystem failure while populating the cache.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("failed to write cached photo %s: %v", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// Config describes where photos come from and how they are cached.
type Config struct {
	CacheDir  string    // Directory holding transformed photos
	AlbumID   string    // Immich album to pick random photos from
	APIURL    string    // Immich API base URL, e.g. https://immich.local/api
	APIKey    string    // Sent as x-api-key
	Transform Transform // Applied before caching
}

// Source resolves photo ids to local files.
type Source interface {
	RandomPhoto(ctx context.Context) (string, error)
	Resolve(ctx context.Context, id string) (string, error)
}

// Option configures a Cache.
type Option func(*Cache)

// WithLookupCounter counts cache lookups by result ("hit" or "miss").
func WithLookupCounter(counter *prometheus.CounterVec) Option {
	return func(c *Cache) { c.lookups = counter }
}

// WithRandom replaces the random index function used by RandomPhoto.
func WithRandom(intN func(n int) int) Option {
	return func(c *Cache) { c.intN = intN }
}

// Cache fetches photos from an Immich album and keeps transformed copies on disk.
// Entries are never evicted. Concurrent misses for the same id each fetch and write
// the same path; the last writer wins.
type Cache struct {
	cfg        Config
	fileClient file.FileOperations
	httpClient *http.Client
	logger     zerolog.Logger
	lookups    *prometheus.CounterVec
	intN       func(n int) int
}

// NewCache creates a photo cache for cfg.
func NewCache(cfg Config, fileClient file.FileOperations, httpClient *http.Client, logger zerolog.Logger, opts ...Option) (*Cache, error) {
	if cfg.Transform == nil {
		return nil, errors.New("photo transform is required")
	}
	if cfg.CacheDir == "" {
		return nil, errors.New("photo cache directory is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Cache{
		cfg:        cfg,
		fileClient: fileClient,
		httpClient: httpClient,
		logger:     logger,
		intN:       rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CachePath returns the deterministic location of the cached copy of id. Ids that would
// leave the cache directory are rejected.
func (c *Cache) CachePath(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	return filepath.Join(c.cfg.CacheDir, fmt.Sprintf("%s_%s.jpg", c.cfg.Transform.Name(), id)), nil
}

// validateID accepts ids that are a single path element.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || filepath.Base(id) != id {
		return fmt.Errorf("%w: %q", ErrInvalidPhotoID, id)
	}
	return nil
}

// RandomPhoto picks an asset of the configured album uniformly at random and resolves it.
func (c *Cache) RandomPhoto(ctx context.Context) (string, error) {
	var album struct {
		Assets []struct {
			ID string `json:"id"`
		} `json:"assets"`
	}

	err := http_utils.GetJSON(ctx, c.httpClient, c.albumURL(), c.headers("application/json"), &album)
	if err != nil {
		return "", fmt.Errorf("failed to list album %s: %w", c.cfg.AlbumID, err)
	}
	if len(album.Assets) == 0 {
		return "", ErrEmptyAlbum
	}

	selected := album.Assets[c.intN(len(album.Assets))]
	return c.Resolve(ctx, selected.ID)
}

// Resolve returns the path of the cached, transformed copy of photo id, fetching
// and converting the thumbnail only when no cached copy exists.
func (c *Cache) Resolve(ctx context.Context, id string) (string, error) {
	path, err := c.CachePath(id)
	if err != nil {
		return "", err
	}

	exists, err := c.fileClient.IsFileExists(path)
	if err != nil {
		return "", fmt.Errorf("failed to check photo cache: %w", err)
	}
	if exists {
		c.observe("hit")
		return path, nil
	}
	c.observe("miss")

	resp, err := http_utils.Get(ctx, c.httpClient, c.thumbnailURL(id), c.headers("application/octet-stream"))
	if err != nil {
		return "", fmt.Errorf("failed to fetch photo %s: %w", id, err)
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode photo %s: %w", id, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, toRGB(c.cfg.Transform.Apply(img)), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode photo %s: %w", id, err)
	}

	if err := c.fileClient.EnsureDir(c.cfg.CacheDir); err != nil {
		return "", &CacheWriteError{Path: c.cfg.CacheDir, Err: err}
	}
	if err := c.fileClient.WriteFileRaw(path, buf.Bytes()); err != nil {
		return "", &CacheWriteError{Path: path, Err: err}
	}

	c.logger.Info().
		Str("photo_id", id).
		Str("transform", c.cfg.Transform.Name()).
		Str("path", path).
		Msg("Cached photo")
	return path, nil
}

func (c *Cache) observe(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}

func (c *Cache) albumURL() string {
	return fmt.Sprintf("%s/albums/%s", c.cfg.APIURL, url.PathEscape(c.cfg.AlbumID))
}

func (c *Cache) thumbnailURL(id string) string {
	return fmt.Sprintf("%s/assets/%s/thumbnail", c.cfg.APIURL, url.PathEscape(id))
}

func (c *Cache) headers(accept string) map[string]string {
	return map[string]string{
		"Accept":    accept,
		"x-api-key": c.cfg.APIKey,
	}
}

// toRGB flattens img onto an opaque white background.
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}
