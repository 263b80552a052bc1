package photos_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/benmeehan/trailprint/internal/mocks"
	"github.com/benmeehan/trailprint/pkg/file"
	"github.com/benmeehan/trailprint/pkg/photos"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeImmich serves one album and PNG thumbnails, counting thumbnail requests.
type fakeImmich struct {
	*httptest.Server
	thumbnails atomic.Int32
	albums     atomic.Int32
}

func newFakeImmich(t *testing.T, assets string) *fakeImmich {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(40, 20, color.NRGBA{R: 200, A: 128})))
	thumbnail := buf.Bytes()

	f := &fakeImmich{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/albums/album-1", func(w http.ResponseWriter, r *http.Request) {
		f.albums.Add(1)
		if r.Header.Get("x-api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(assets))
	})
	mux.HandleFunc("/api/assets/{id}/thumbnail", func(w http.ResponseWriter, r *http.Request) {
		f.thumbnails.Add(1)
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/octet-stream", r.Header.Get("Accept"))
		_, _ = w.Write(thumbnail)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newCache(t *testing.T, srv *fakeImmich, dir string, tr photos.Transform, opts ...photos.Option) *photos.Cache {
	t.Helper()
	c, err := photos.NewCache(photos.Config{
		CacheDir:  dir,
		AlbumID:   "album-1",
		APIURL:    srv.URL + "/api",
		APIKey:    "secret",
		Transform: tr,
	}, file.NewFileService(), srv.Client(), zerolog.Nop(), opts...)
	require.NoError(t, err)
	return c
}

// TestCache_Resolve_FetchesOnce tests that a second resolve is served from disk.
func TestCache_Resolve_FetchesOnce(t *testing.T) {
	srv := newFakeImmich(t, `{"assets":[]}`)
	dir := filepath.Join(t.TempDir(), "cache")
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "lookups"}, []string{"result"})
	c := newCache(t, srv, dir, photos.SquareResize{Size: 16}, photos.WithLookupCounter(lookups))

	first, err := c.Resolve(context.Background(), "abc")
	require.NoError(t, err)
	second, err := c.Resolve(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join(dir, "square16_abc.jpg"), first)
	assert.Equal(t, int32(1), srv.thumbnails.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(lookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(lookups.WithLabelValues("miss")))

	f, err := os.Open(first)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
}

// TestCache_Resolve_DistinctTransforms tests that transforms do not share cache entries.
func TestCache_Resolve_DistinctTransforms(t *testing.T) {
	srv := newFakeImmich(t, `{"assets":[]}`)
	dir := t.TempDir()

	a, err := newCache(t, srv, dir, photos.SquareResize{Size: 16}).Resolve(context.Background(), "abc")
	require.NoError(t, err)
	b, err := newCache(t, srv, dir, photos.AspectCrop{Width: 16, Height: 8}).Resolve(context.Background(), "abc")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, int32(2), srv.thumbnails.Load())
}

// TestCache_Resolve_StatusError tests that API failures surface as StatusError.
func TestCache_Resolve_StatusError(t *testing.T) {
	srv := newFakeImmich(t, `{"assets":[]}`)
	dir := t.TempDir()
	c := newCache(t, srv, dir, photos.SquareResize{Size: 16})

	_, err := c.Resolve(context.Background(), "missing")

	var statusErr *photos.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestCache_Resolve_CacheWriteError tests that filesystem failures are typed.
func TestCache_Resolve_CacheWriteError(t *testing.T) {
	srv := newFakeImmich(t, `{"assets":[]}`)
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("IsFileExists", mock.Anything).Return(false, nil)
	fileClient.On("EnsureDir", "/cache").Return(nil)
	fileClient.On("WriteFileRaw", "/cache/square16_abc.jpg", mock.Anything).Return(os.ErrPermission)

	c, err := photos.NewCache(photos.Config{
		CacheDir:  "/cache",
		APIURL:    srv.URL + "/api",
		APIKey:    "secret",
		Transform: photos.SquareResize{Size: 16},
	}, fileClient, srv.Client(), zerolog.Nop())
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "abc")

	var writeErr *photos.CacheWriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "/cache/square16_abc.jpg", writeErr.Path)
	assert.ErrorIs(t, err, os.ErrPermission)
	fileClient.AssertExpectations(t)
}

// TestCache_RandomPhoto tests selection from the album listing.
func TestCache_RandomPhoto(t *testing.T) {
	srv := newFakeImmich(t, `{"assets":[{"id":"one","type":"IMAGE"},{"id":"two"},{"id":"three"}]}`)
	dir := t.TempDir()
	c := newCache(t, srv, dir, photos.SquareResize{Size: 8}, photos.WithRandom(func(n int) int {
		assert.Equal(t, 3, n)
		return 1
	}))

	path, err := c.RandomPhoto(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "square8_two.jpg"), path)
	assert.Equal(t, int32(1), srv.albums.Load())
}

func TestCache_RandomPhoto_EmptyAlbum(t *testing.T) {
	srv := newFakeImmich(t, `{"assets":[]}`)
	c := newCache(t, srv, t.TempDir(), photos.SquareResize{Size: 8})

	_, err := c.RandomPhoto(context.Background())
	assert.ErrorIs(t, err, photos.ErrEmptyAlbum)
}

func TestNewCache_RequiresTransform(t *testing.T) {
	_, err := photos.NewCache(photos.Config{CacheDir: "/tmp"}, file.NewFileService(), nil, zerolog.Nop())
	assert.Error(t, err)
}

// TestCache_Resolve_RejectsUnsafeIDs tests that ids which would leave the cache directory are refused.
func TestCache_Resolve_RejectsUnsafeIDs(t *testing.T) {
	srv := newFakeImmich(t, `{"assets":[]}`)
	root := t.TempDir()
	dir := filepath.Join(root, "cache")
	c := newCache(t, srv, dir, photos.SquareResize{Size: 8})

	for _, id := range []string{"", ".", "..", "../../../escaped", "nested/abc", `..\escaped`} {
		t.Run(id, func(t *testing.T) {
			path, err := c.Resolve(context.Background(), id)

			assert.Empty(t, path)
			assert.ErrorIs(t, err, photos.ErrInvalidPhotoID)
		})
	}

	assert.Equal(t, int32(0), srv.thumbnails.Load())
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestCache_Resolve_EscapesID tests that query characters in an id stay part of the request path.
func TestCache_Resolve_EscapesID(t *testing.T) {
	srv := newFakeImmich(t, `{"assets":[]}`)
	dir := t.TempDir()
	c := newCache(t, srv, dir, photos.SquareResize{Size: 8})

	path, err := c.Resolve(context.Background(), "a?b#c")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "square8_a?b#c.jpg"), path)
	assert.Equal(t, int32(1), srv.thumbnails.Load())
}

func TestCache_RandomPhoto_UnsafeAssetID(t *testing.T) {
	srv := newFakeImmich(t, `{"assets":[{"id":"../../escaped"}]}`)
	c := newCache(t, srv, t.TempDir(), photos.SquareResize{Size: 8})

	_, err := c.RandomPhoto(context.Background())

	assert.ErrorIs(t, err, photos.ErrInvalidPhotoID)
	assert.Equal(t, int32(0), srv.thumbnails.Load())
}
