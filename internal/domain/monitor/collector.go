package monitor

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// CPUStatus reports processor load and core count.
type CPUStatus struct {
	Percent float64 `json:"cpu_percent"`
	Cores   int     `json:"cpu_cores"`
}

// MemoryStatus reports virtual memory usage in percent and gigabytes.
type MemoryStatus struct {
	Percent float64 `json:"memory_percent"`
	TotalGB float64 `json:"total_gb"`
	UsedGB  float64 `json:"used_gb"`
	FreeGB  float64 `json:"free_gb"`
}

// DiskStatus reports usage of the monitored filesystem.
type DiskStatus struct {
	Percent float64 `json:"disk_percent"`
	TotalGB float64 `json:"total_gb"`
	UsedGB  float64 `json:"used_gb"`
	FreeGB  float64 `json:"free_gb"`
}

// HostStatus reports identity of the monitored machine.
type HostStatus struct {
	Hostname  string `json:"hostname"`
	Platform  string `json:"platform"`
	GoVersion string `json:"go_version"`
}

// Snapshot is the combined reading served by the all-metrics endpoint and fed
// into the compliance evaluator.
type Snapshot struct {
	Timestamp     time.Time `json:"timestamp"`
	Hostname      string    `json:"hostname"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	DiskPercent   float64   `json:"disk_percent"`
}

// Provider is the metrics capability consumed by the HTTP layer. The gopsutil
// collector below is the production implementation; tests substitute stubs.
type Provider interface {
	CPU(ctx context.Context) (CPUStatus, error)
	Memory(ctx context.Context) (MemoryStatus, error)
	Disk(ctx context.Context) (DiskStatus, error)
	Host(ctx context.Context) (HostStatus, error)
	Snapshot(ctx context.Context) (Snapshot, error)
}

// CollectorOptions tunes the gopsutil collector.
type CollectorOptions struct {
	// DiskPath is the mount point measured by Disk. Defaults to "/".
	DiskPath string
	// CPUSampleTime is how long the cpu percentage is sampled for.
	CPUSampleTime time.Duration
}

// Collector implements Provider on top of gopsutil.
type Collector struct {
	diskPath      string
	cpuSampleTime time.Duration
}

// NewCollector builds a Collector with defaults applied.
func NewCollector(opts CollectorOptions) *Collector {
	diskPath := opts.DiskPath
	if diskPath == "" {
		diskPath = "/"
	}
	sample := opts.CPUSampleTime
	if sample <= 0 {
		sample = time.Second
	}
	return &Collector{
		diskPath:      diskPath,
		cpuSampleTime: sample,
	}
}

func (c *Collector) CPU(ctx context.Context) (CPUStatus, error) {
	percents, err := cpu.PercentWithContext(ctx, c.cpuSampleTime, false)
	if err != nil {
		return CPUStatus{}, fmt.Errorf("cpu sample failed: %w", err)
	}
	if len(percents) == 0 {
		return CPUStatus{}, fmt.Errorf("cpu sample returned no data")
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return CPUStatus{}, fmt.Errorf("cpu count failed: %w", err)
	}
	return CPUStatus{
		Percent: round2(percents[0]),
		Cores:   cores,
	}, nil
}

func (c *Collector) Memory(ctx context.Context) (MemoryStatus, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStatus{}, fmt.Errorf("memory stat failed: %w", err)
	}
	return MemoryStatus{
		Percent: round2(vm.UsedPercent),
		TotalGB: toGB(vm.Total),
		UsedGB:  toGB(vm.Used),
		FreeGB:  toGB(vm.Available),
	}, nil
}

func (c *Collector) Disk(ctx context.Context) (DiskStatus, error) {
	usage, err := disk.UsageWithContext(ctx, c.diskPath)
	if err != nil {
		return DiskStatus{}, fmt.Errorf("disk stat failed for %s: %w", c.diskPath, err)
	}
	return DiskStatus{
		Percent: round2(usage.UsedPercent),
		TotalGB: toGB(usage.Total),
		UsedGB:  toGB(usage.Used),
		FreeGB:  toGB(usage.Free),
	}, nil
}

func (c *Collector) Host(ctx context.Context) (HostStatus, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostStatus{}, fmt.Errorf("host info failed: %w", err)
	}
	platform := info.Platform
	if info.PlatformVersion != "" {
		platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
	}
	return HostStatus{
		Hostname:  info.Hostname,
		Platform:  platform,
		GoVersion: runtime.Version(),
	}, nil
}

func (c *Collector) Snapshot(ctx context.Context) (Snapshot, error) {
	cpuStatus, err := c.CPU(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	memStatus, err := c.Memory(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	diskStatus, err := c.Disk(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	hostname, err := hostname(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Timestamp:     time.Now(),
		Hostname:      hostname,
		CPUPercent:    cpuStatus.Percent,
		MemoryPercent: memStatus.Percent,
		DiskPercent:   diskStatus.Percent,
	}, nil
}

func hostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("host info failed: %w", err)
	}
	return info.Hostname, nil
}

func toGB(bytes uint64) float64 {
	return round2(float64(bytes) / (1 << 30))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
