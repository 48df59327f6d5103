package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testCollector() *Collector {
	return NewCollector(CollectorOptions{
		CPUSampleTime: 50 * time.Millisecond,
	})
}

func TestCollectorCPU(t *testing.T) {
	status, err := testCollector().CPU(context.Background())

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, status.Percent, float64(0), "CPU usage should be non-negative")
	assert.LessOrEqual(t, status.Percent, float64(100), "CPU usage should not exceed 100%")
	assert.Greater(t, status.Cores, 0, "core count should be positive")
}

func TestCollectorMemory(t *testing.T) {
	status, err := testCollector().Memory(context.Background())

	assert.NoError(t, err)
	assert.True(t, status.Percent >= 0 && status.Percent <= 100,
		"memory usage percentage should be between 0 and 100")
	assert.Greater(t, status.TotalGB, float64(0), "total memory should be positive")
	assert.GreaterOrEqual(t, status.TotalGB, status.UsedGB,
		"used memory should not exceed total")
}

func TestCollectorDisk(t *testing.T) {
	status, err := testCollector().Disk(context.Background())

	assert.NoError(t, err)
	assert.True(t, status.Percent >= 0 && status.Percent <= 100,
		"disk usage percentage should be between 0 and 100")
	assert.Greater(t, status.TotalGB, float64(0), "total disk should be positive")
}

func TestCollectorHost(t *testing.T) {
	status, err := testCollector().Host(context.Background())

	assert.NoError(t, err)
	assert.NotEmpty(t, status.Hostname, "hostname should not be empty")
	assert.NotEmpty(t, status.GoVersion, "go version should not be empty")
}

func TestCollectorSnapshot(t *testing.T) {
	snap, err := testCollector().Snapshot(context.Background())

	assert.NoError(t, err)
	assert.NotEmpty(t, snap.Hostname)
	assert.False(t, snap.Timestamp.IsZero(), "timestamp should be set")
	assert.True(t, snap.CPUPercent >= 0 && snap.CPUPercent <= 100)
	assert.True(t, snap.MemoryPercent >= 0 && snap.MemoryPercent <= 100)
	assert.True(t, snap.DiskPercent >= 0 && snap.DiskPercent <= 100)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 12.35, round2(12.345001))
	assert.Equal(t, 0.0, round2(0))
	assert.Equal(t, 100.0, round2(100))
}
