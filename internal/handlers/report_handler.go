package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/benmeehan/trailprint/internal/metrics"
	"github.com/benmeehan/trailprint/internal/services"
	"github.com/benmeehan/trailprint/pkg/location"
	"github.com/benmeehan/trailprint/pkg/printer"
	"github.com/benmeehan/trailprint/pkg/s3"
	"github.com/benmeehan/trailprint/pkg/traccar"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	pdfContentType     = "application/pdf"
	pdfDisposition     = `inline; filename="out.pdf"`
	maxNMEABodyBytes   = 8 << 20
	routeReport        = "/location/"
	routeNMEA          = "/location/nmea"
	outcomeSuccess     = "success"
	outcomeInvalid     = "invalid"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
	outcomePrintFailed = "print_failed"
)

// ReportHandlerConfig holds the collaborators of a ReportHandler. Pusher, Printer and
// Archiver are optional: a nil Pusher or Printer makes the matching flag fail with 503,
// a nil Archiver disables archiving.
type ReportHandlerConfig struct {
	Pusher   traccar.Pusher
	Pages    services.PageGenerator
	Printer  printer.Printer
	Archiver s3.Archiver
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// ReportHandler serves the /location routes.
type ReportHandler struct {
	pusher   traccar.Pusher
	pages    services.PageGenerator
	printer  printer.Printer
	archiver s3.Archiver
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(cfg ReportHandlerConfig) *ReportHandler {
	return &ReportHandler{
		pusher:   cfg.Pusher,
		pages:    cfg.Pages,
		printer:  cfg.Printer,
		archiver: cfg.Archiver,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// CreateReport handles POST /location/.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var report LocationReport
	if err := c.ShouldBindJSON(&report); err != nil {
		h.metrics.Reports.WithLabelValues(routeReport, outcomeInvalid).Inc()
		WriteProblem(c, http.StatusBadRequest, "Malformed report", err.Error(), nil)
		return
	}

	h.handle(c, routeReport, report)
}

// CreateReportFromNMEA handles POST /location/nmea. The body is an NMEA 0183 log and the
// flags come from the query string.
func (h *ReportHandler) CreateReportFromNMEA(c *gin.Context) {
	var query nmeaQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.metrics.Reports.WithLabelValues(routeNMEA, outcomeInvalid).Inc()
		WriteProblem(c, http.StatusBadRequest, "Invalid query", err.Error(), nil)
		return
	}

	ev, err := location.ParseNMEA(query.DeviceID, http.MaxBytesReader(c.Writer, c.Request.Body, maxNMEABodyBytes))
	if err != nil {
		h.metrics.Reports.WithLabelValues(routeNMEA, outcomeInvalid).Inc()
		status := http.StatusBadRequest
		if errors.Is(err, location.ErrEmptySequence) {
			status = http.StatusUnprocessableEntity
		}
		WriteProblem(c, status, "Unusable NMEA log", err.Error(), nil)
		return
	}

	h.handle(c, routeNMEA, LocationReport{
		Event:          ev,
		PublishTraccar: query.PublishTraccar,
		PrintMap:       query.PrintMap,
		ReturnPDF:      query.ReturnPDF,
	})
}

// DummyData handles GET /location/dummyData.
func (h *ReportHandler) DummyData(c *gin.Context) {
	c.JSON(http.StatusOK, location.SampleEvent())
}

func (h *ReportHandler) handle(c *gin.Context, route string, report LocationReport) {
	ctx := c.Request.Context()
	ev := report.Event
	logger := h.logger.With().
		Str("request_id", c.GetString(requestIDKey)).
		Str("device_id", ev.DeviceID).
		Logger()

	needsPage := report.PrintMap || report.ReturnPDF
	err := ev.Validate()
	if err == nil && needsPage && len(ev.Points) == 0 {
		err = fmt.Errorf("points: %w", location.ErrEmptySequence)
	}
	if err != nil {
		h.metrics.Reports.WithLabelValues(route, outcomeInvalid).Inc()
		WriteProblem(c, http.StatusBadRequest, "Invalid event", "the event failed validation", fieldErrors(err))
		return
	}

	if (report.PublishTraccar && h.pusher == nil) || (report.PrintMap && h.printer == nil) {
		h.metrics.Reports.WithLabelValues(route, outcomeUnavailable).Inc()
		WriteProblem(c, http.StatusServiceUnavailable, "Collaborator not configured",
			"traccar publishing or printing was requested but is not configured", nil)
		return
	}

	if report.PublishTraccar {
		accepted, err := h.pusher.PushAll(ctx, ev)
		h.metrics.ObservePushes(accepted, len(ev.Points))
		if err != nil {
			logger.Warn().Err(err).Int("accepted", accepted).Msg("Some points were not pushed")
		}
	}

	if !needsPage {
		h.metrics.Reports.WithLabelValues(route, outcomeSuccess).Inc()
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}

	doc, err := h.pages.Generate(ctx, ev)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate report page")
		h.metrics.Reports.WithLabelValues(route, outcomeError).Inc()
		WriteProblem(c, http.StatusInternalServerError, "Report generation failed", err.Error(), nil)
		return
	}
	defer doc.Release()

	h.archive(ctx, logger, ev.DeviceID, doc)

	if report.PrintMap {
		if err := h.printer.Print(ctx, doc.Bytes()); err != nil {
			logger.Error().Err(err).Msg("Failed to print report")
			if !report.ReturnPDF {
				h.metrics.Reports.WithLabelValues(route, outcomePrintFailed).Inc()
				WriteProblem(c, http.StatusBadGateway, "Printing failed", err.Error(), nil)
				return
			}
		} else {
			h.metrics.DocumentsPrinted.Inc()
		}
	}

	h.metrics.Reports.WithLabelValues(route, outcomeSuccess).Inc()

	if report.ReturnPDF {
		c.Header("Content-Disposition", pdfDisposition)
		c.Data(http.StatusOK, pdfContentType, doc.Bytes())
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// archive uploads the document when archiving is enabled. Failures are only logged.
func (h *ReportHandler) archive(ctx context.Context, logger zerolog.Logger, deviceID string, doc *services.Document) {
	if h.archiver == nil {
		return
	}

	key, err := h.archiver.Archive(ctx, deviceID, doc.Bytes())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to archive report")
		return
	}

	h.metrics.ReportsArchived.Inc()
	logger.Info().Str("key", key).Msg("Archived report")
}
