package handlers

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxLoggedBody   = 4 << 10
)

// RequestID tags each request with the caller's X-Request-ID or a fresh UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs every request, choosing the level from the response status. At debug
// level the request headers and the first few KiB of the body are logged too.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		if debug := logger.Debug(); debug.Enabled() {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("Failed to read request body")
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))

			logged := body
			if len(logged) > maxLoggedBody {
				logged = logged[:maxLoggedBody]
			}
			debug.
				Str("request_id", c.GetString(requestIDKey)).
				Interface("headers", c.Request.Header).
				Bytes("body", logged).
				Msg("Request received")
		}

		// Process request
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			event = event.Str("error", msg)
		}

		event.
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
