package http_utils_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	http_utils "github.com/benmeehan/trailprint/pkg/httpUtils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"album-1","assets":[{"id":"a"}]}`))
	}))
	defer srv.Close()

	var out struct {
		ID     string `json:"id"`
		Assets []struct {
			ID string `json:"id"`
		} `json:"assets"`
	}
	err := http_utils.GetJSON(context.Background(), srv.Client(), srv.URL, map[string]string{"x-api-key": "secret"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "album-1", out.ID)
	assert.Len(t, out.Assets, 1)
}

func TestGet_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	resp, err := http_utils.Get(context.Background(), nil, srv.URL, nil)

	assert.Nil(t, resp)
	var statusErr *http_utils.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, srv.URL, statusErr.URL)
}

func TestGetJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := http_utils.GetJSON(context.Background(), srv.Client(), srv.URL, nil, &out)

	assert.ErrorContains(t, err, "failed to decode response")
}
