package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/benmeehan/trailprint/internal/metrics"
	"github.com/benmeehan/trailprint/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`             // HTTP listen port
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Grace period for in-flight requests
	} `yaml:"server"`

	HTTP struct {
		Timeout time.Duration `yaml:"timeout"` // Timeout for outbound requests
	} `yaml:"http"`

	Log struct {
		Level string `yaml:"level"` // zerolog level name
	} `yaml:"log"`

	Traccar struct {
		URL string `yaml:"url"` // OsmAnd/JSON endpoint of the Traccar server
	} `yaml:"traccar"`

	Immich struct {
		APIURL    string `yaml:"api_url"`   // Base URL of the Immich API, e.g. https://photos.example/api
		APIKey    string `yaml:"api_key"`   // Sent as x-api-key
		AlbumID   string `yaml:"album_id"`  // Album the report photo is drawn from
		CacheDir  string `yaml:"cache_dir"` // Directory for transformed JPEGs
		Transform string `yaml:"transform"` // page, square:<n> or aspect:<w>x<h>
	} `yaml:"immich"`

	Maps struct {
		GoogleAPIKey string `yaml:"google_api_key"` // Use Google Static Maps when set, OSM tiles otherwise
		Width        int    `yaml:"width"`          // Map width in pixels
		Height       int    `yaml:"height"`         // Map height in pixels
	} `yaml:"maps"`

	Printer struct {
		Enabled  bool   `yaml:"enabled"`  // Enable/disable printing
		Host     string `yaml:"host"`     // CUPS host
		Port     int    `yaml:"port"`     // CUPS port
		Username string `yaml:"username"` // CUPS user
		Password string `yaml:"password"` // CUPS password
		UseTLS   bool   `yaml:"use_tls"`  // Talk IPPS
		Name     string `yaml:"name"`     // Printer queue name
		JobName  string `yaml:"job_name"` // Job title in the queue
		TempDir  string `yaml:"temp_dir"` // Where PDFs are spooled before submission
	} `yaml:"printer"`

	MQTT struct {
		Enabled       bool   `yaml:"enabled"`        // Enable/disable the point mirror
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate
		Topic         string `yaml:"topic"`          // Topic prefix, device id is appended
		QOS           int    `yaml:"qos"`            // MQTT QoS level for mirrored points
	} `yaml:"mqtt"`

	S3 struct {
		Enabled         bool   `yaml:"enabled"`           // Enable/disable report archiving
		Endpoint        string `yaml:"endpoint"`          // host:port of the object store
		AccessKeyID     string `yaml:"access_key_id"`     // Access key
		SecretAccessKey string `yaml:"secret_access_key"` // Secret key
		UseSSL          bool   `yaml:"use_ssl"`           // Use HTTPS
		Bucket          string `yaml:"bucket"`            // Bucket for report PDFs
		Region          string `yaml:"region"`            // Bucket region
	} `yaml:"s3"`

	Metrics struct {
		Host metrics.HostConfig `yaml:"host"` // Host gauges exported on /metrics
	} `yaml:"metrics"`
}

// LoadConfig loads the YAML configuration from the specified file, applies environment
// overrides and fills in defaults.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	// Use the ReadYamlFile method from fileClient
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	config.applyDefaults()

	return &config, nil
}

// applyEnv overrides file values with any of the supported environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	overrides := map[string]*string{
		"TRACCAR_SERVER":      &c.Traccar.URL,
		"CUPS_PRINTER_NAME":   &c.Printer.Name,
		"CUPS_HOST":           &c.Printer.Host,
		"IMMICH_API_URL":      &c.Immich.APIURL,
		"IMMICH_API_KEY":      &c.Immich.APIKey,
		"IMMICH_ALBUM_ID":     &c.Immich.AlbumID,
		"GOOGLE_MAPS_API_KEY": &c.Maps.GoogleAPIKey,
		"S3_ACCESS_KEY_ID":    &c.S3.AccessKeyID,
		"S3_SECRET_KEY":       &c.S3.SecretAccessKey,
		"LOG_LEVEL":           &c.Log.Level,
	}
	for key, dst := range overrides {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Immich.CacheDir == "" {
		c.Immich.CacheDir = "cache"
	}
	if c.Immich.Transform == "" {
		c.Immich.Transform = "page"
	}
	if c.Maps.Width == 0 {
		c.Maps.Width = 1500
	}
	if c.Maps.Height == 0 {
		c.Maps.Height = 1000
	}
	if c.Printer.Host == "" {
		c.Printer.Host = "localhost"
	}
	if c.Printer.Port == 0 {
		c.Printer.Port = 631
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "trailprint/points"
	}
	if c.S3.Bucket == "" {
		c.S3.Bucket = "trailprint-reports"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
}
