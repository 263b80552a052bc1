package service_registry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benmeehan/trailprint/internal/handlers"
	"github.com/benmeehan/trailprint/internal/metrics"
	"github.com/benmeehan/trailprint/internal/services"
	"github.com/benmeehan/trailprint/internal/utils"
	"github.com/benmeehan/trailprint/pkg/file"
	"github.com/benmeehan/trailprint/pkg/maprender"
	"github.com/benmeehan/trailprint/pkg/mqtt"
	"github.com/benmeehan/trailprint/pkg/photos"
	"github.com/benmeehan/trailprint/pkg/printer"
	"github.com/benmeehan/trailprint/pkg/s3"
	"github.com/benmeehan/trailprint/pkg/traccar"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

// ServiceRegistry builds the report collaborators enabled in the configuration and tears
// them down again on shutdown.
type ServiceRegistry struct {
	config     *utils.Config
	fileClient file.FileOperations
	httpClient *http.Client
	metrics    *metrics.Metrics
	Logger     zerolog.Logger

	mirror   *mqtt.MqttService
	pusher   *traccar.Client
	photos   *photos.Cache
	renderer maprender.Renderer
	printer  *printer.CUPSPrinter
	archive  *s3.ObjectStorage
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(config *utils.Config, fileClient file.FileOperations, m *metrics.Metrics,
	logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		config:     config,
		fileClient: fileClient,
		httpClient: &http.Client{Timeout: config.HTTP.Timeout},
		metrics:    m,
		Logger:     logger,
	}
}

// Build constructs every enabled collaborator in order and returns the handler configuration.
// Collaborators that are disabled stay nil in the result.
func (sr *ServiceRegistry) Build(ctx context.Context) (handlers.ReportHandlerConfig, error) {
	config := sr.config

	// Ordered collaborator definitions with inline constructors
	collaboratorsInOrder := []struct {
		name        string
		enabled     bool
		constructor func() error
	}{
		{
			name:    "mqtt_mirror",
			enabled: config.MQTT.Enabled,
			constructor: func() error {
				mirror := mqtt.NewMqttService(sr.fileClient, config.MQTT.Topic, config.MQTT.QOS)
				clientID := config.MQTT.ClientID + "-" + uuid.NewString()
				if err := mirror.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
					return err
				}
				sr.mirror = mirror
				return nil
			},
		},
		{
			name:    "traccar",
			enabled: config.Traccar.URL != "",
			constructor: func() error {
				var mirror traccar.Mirror
				if sr.mirror != nil {
					mirror = sr.mirror
				}
				sr.pusher = traccar.NewClient(config.Traccar.URL, sr.httpClient, mirror, sr.Logger)
				return nil
			},
		},
		{
			name:    "photos",
			enabled: config.Immich.APIURL != "" && config.Immich.AlbumID != "",
			constructor: func() error {
				transform, err := photos.ParseTransform(config.Immich.Transform)
				if err != nil {
					return err
				}
				cache, err := photos.NewCache(photos.Config{
					CacheDir:  config.Immich.CacheDir,
					AlbumID:   config.Immich.AlbumID,
					APIURL:    config.Immich.APIURL,
					APIKey:    config.Immich.APIKey,
					Transform: transform,
				}, sr.fileClient, sr.httpClient, sr.Logger, photos.WithLookupCounter(sr.metrics.PhotoLookups))
				if err != nil {
					return err
				}
				sr.photos = cache
				return nil
			},
		},
		{
			name:    "renderer",
			enabled: true,
			constructor: func() error {
				if config.Maps.GoogleAPIKey == "" {
					sr.renderer = maprender.NewOSMRenderer()
					return nil
				}
				renderer, err := maprender.NewGoogleRenderer(config.Maps.GoogleAPIKey, maps.WithHTTPClient(sr.httpClient))
				if err != nil {
					return err
				}
				sr.renderer = renderer
				return nil
			},
		},
		{
			name:    "printer",
			enabled: config.Printer.Enabled,
			constructor: func() error {
				sr.printer = printer.NewCUPSPrinter(printer.Config{
					Host:     config.Printer.Host,
					Port:     config.Printer.Port,
					Username: config.Printer.Username,
					Password: config.Printer.Password,
					UseTLS:   config.Printer.UseTLS,
					Name:     config.Printer.Name,
					JobName:  config.Printer.JobName,
					TempDir:  config.Printer.TempDir,
				}, sr.fileClient, sr.Logger)
				return nil
			},
		},
		{
			name:    "archive",
			enabled: config.S3.Enabled,
			constructor: func() error {
				archive, err := s3.Connect(ctx, config.S3.Endpoint, config.S3.AccessKeyID, config.S3.SecretAccessKey,
					config.S3.UseSSL, config.S3.Bucket, config.S3.Region)
				if err != nil {
					return err
				}
				sr.archive = archive
				return nil
			},
		},
	}

	built := []string{}
	for _, c := range collaboratorsInOrder {
		if !c.enabled {
			sr.Logger.Debug().Str("collaborator", c.name).Msg("Collaborator is disabled, skipping")
			continue
		}
		if err := c.constructor(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to create %s", c.name)
			sr.Close()
			return handlers.ReportHandlerConfig{}, fmt.Errorf("failed to create %s: %w", c.name, err)
		}
		built = append(built, c.name)
	}
	sr.Logger.Info().Msgf("Built collaborators in order: %v", built)

	return sr.handlerConfig(), nil
}

// handlerConfig copies the built collaborators into interface fields, leaving disabled
// ones as untyped nil.
func (sr *ServiceRegistry) handlerConfig() handlers.ReportHandlerConfig {
	cfg := handlers.ReportHandlerConfig{
		Metrics: sr.metrics,
		Logger:  sr.Logger,
	}

	var photoSource photos.Source
	if sr.photos != nil {
		photoSource = sr.photos
	}
	cfg.Pages = services.NewPageService(sr.renderer, photoSource, sr.config.Maps.Width, sr.config.Maps.Height,
		sr.metrics.PDFGeneration, sr.Logger)

	if sr.pusher != nil {
		cfg.Pusher = sr.pusher
	}
	if sr.printer != nil {
		cfg.Printer = sr.printer
	}
	if sr.archive != nil {
		cfg.Archiver = sr.archive
	}
	return cfg
}

// Close releases long-lived connections.
func (sr *ServiceRegistry) Close() {
	if sr.mirror != nil {
		sr.mirror.Disconnect(250)
		sr.mirror = nil
	}
}
