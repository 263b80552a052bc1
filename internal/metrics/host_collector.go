package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
)

// HostConfig selects which host gauges are exported. The print server usually runs on a
// small box next to the printer, so the photo cache disk is worth watching.
type HostConfig struct {
	MonitorCPU    bool   `yaml:"monitor_cpu"`
	MonitorMemory bool   `yaml:"monitor_memory"`
	MonitorDisk   bool   `yaml:"monitor_disk"`
	DiskPath      string `yaml:"disk_path"`
}

// Enabled reports whether any host metric is turned on.
func (c HostConfig) Enabled() bool {
	return c.MonitorCPU || c.MonitorMemory || c.MonitorDisk
}

// HostCollector samples host usage with gopsutil on every scrape.
type HostCollector struct {
	config HostConfig
	logger zerolog.Logger

	cpuDesc    *prometheus.Desc
	memoryDesc *prometheus.Desc
	diskDesc   *prometheus.Desc
}

// NewHostCollector creates a HostCollector. DiskPath defaults to "/".
func NewHostCollector(config HostConfig, logger zerolog.Logger) *HostCollector {
	if config.DiskPath == "" {
		config.DiskPath = "/"
	}
	return &HostCollector{
		config: config,
		logger: logger,
		cpuDesc: prometheus.NewDesc(namespace+"_host_cpu_percent",
			"Percentage of CPU utilization across all cores.", nil, nil),
		memoryDesc: prometheus.NewDesc(namespace+"_host_memory_percent",
			"Percentage of used virtual memory.", nil, nil),
		diskDesc: prometheus.NewDesc(namespace+"_host_disk_percent",
			"Percentage of used disk space.", []string{"path"}, nil),
	}
}

func (c *HostCollector) Describe(ch chan<- *prometheus.Desc) {
	if c.config.MonitorCPU {
		ch <- c.cpuDesc
	}
	if c.config.MonitorMemory {
		ch <- c.memoryDesc
	}
	if c.config.MonitorDisk {
		ch <- c.diskDesc
	}
}

// Collect skips any gauge whose sample fails; the failure is logged.
func (c *HostCollector) Collect(ch chan<- prometheus.Metric) {
	if c.config.MonitorCPU {
		percentages, err := cpu.Percent(0, false)
		switch {
		case err != nil:
			c.logger.Error().Err(err).Msg("Failed to get CPU usage")
		case len(percentages) == 0:
			c.logger.Warn().Msg("CPU usage data is empty")
		default:
			ch <- prometheus.MustNewConstMetric(c.cpuDesc, prometheus.GaugeValue, percentages[0])
		}
	}

	if c.config.MonitorMemory {
		memStats, err := mem.VirtualMemory()
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to retrieve memory statistics")
		} else {
			ch <- prometheus.MustNewConstMetric(c.memoryDesc, prometheus.GaugeValue, memStats.UsedPercent)
		}
	}

	if c.config.MonitorDisk {
		diskStats, err := disk.Usage(c.config.DiskPath)
		if err != nil {
			c.logger.Error().Err(err).Str("path", c.config.DiskPath).Msg("Failed to get disk usage")
		} else {
			ch <- prometheus.MustNewConstMetric(c.diskDesc, prometheus.GaugeValue, diskStats.UsedPercent, c.config.DiskPath)
		}
	}
}
