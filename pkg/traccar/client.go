package traccar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/benmeehan/trailprint/pkg/location"
	"github.com/rs/zerolog"
)

// Mirror receives a copy of every pushed payload, e.g. an MQTT publisher.
type Mirror interface {
	PublishPoint(deviceID string, payload []byte) error
}

// Pusher sends points to a tracking server.
type Pusher interface {
	Push(ctx context.Context, deviceID string, p location.Point) (int, error)
	PushAll(ctx context.Context, ev location.Event) (int, error)
}

// StatusError reports a push the server answered with a non-2xx status.
type StatusError struct {
	DeviceID   string
	Point      location.Point
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("traccar push for device %s at %s returned status %d",
		e.DeviceID, e.Point.Time.Format(timestampLayout), e.StatusCode)
}

// Client pushes points to a Traccar server over plain HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	mirror     Mirror
	logger     zerolog.Logger
}

// NewClient creates a Client posting to url. mirror may be nil.
func NewClient(url string, httpClient *http.Client, mirror Mirror, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		url:        url,
		httpClient: httpClient,
		mirror:     mirror,
		logger:     logger,
	}
}

// Push posts a single point and returns the HTTP status code. A non-2xx status is
// not an error; only transport failures are.
func (c *Client) Push(ctx context.Context, deviceID string, p location.Point) (int, error) {
	body, err := json.Marshal(NewPayload(deviceID, p))
	if err != nil {
		return 0, fmt.Errorf("failed to serialize traccar payload: %w", err)
	}

	c.logger.Debug().RawJSON("payload", body).Msg("Pushing point to traccar")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build traccar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("traccar push failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if c.mirror != nil {
		if err := c.mirror.PublishPoint(deviceID, body); err != nil {
			c.logger.Warn().Err(err).Str("device_id", deviceID).Msg("Failed to mirror point")
		}
	}

	return resp.StatusCode, nil
}

// PushAll pushes every point of the event in arrival order. Failures are logged and do
// not stop the batch. It returns the number of accepted points and the joined failures.
func (c *Client) PushAll(ctx context.Context, ev location.Event) (int, error) {
	var (
		accepted int
		errs     []error
	)

	for _, p := range ev.Points {
		status, err := c.Push(ctx, ev.DeviceID, p)
		if err != nil {
			c.logger.Error().
				Err(err).
				Str("device_id", ev.DeviceID).
				Time("point_time", p.Time).
				Msg("Failed to push point")
			errs = append(errs, err)
			continue
		}

		if status < 200 || status > 299 {
			c.logger.Error().
				Str("device_id", ev.DeviceID).
				Interface("point", p).
				Int("status", status).
				Msg("Traccar did not accept point")
			errs = append(errs, &StatusError{DeviceID: ev.DeviceID, Point: p, StatusCode: status})
			continue
		}
		accepted++
	}

	c.logger.Info().
		Str("device_id", ev.DeviceID).
		Int("accepted", accepted).
		Int("total", len(ev.Points)).
		Msg("Pushed event to traccar")

	return accepted, errors.Join(errs...)
}
