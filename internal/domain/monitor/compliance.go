package monitor

import (
	"context"
	"fmt"
	"time"
)

// Check statuses and report verdicts.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"

	VerdictCompliant    = "COMPLIANT"
	VerdictNonCompliant = "NON-COMPLIANT"
)

// Thresholds are the usage ceilings a compliant host must stay under. A
// reading equal to its threshold already counts as a failure.
type Thresholds struct {
	CPU    float64
	Memory float64
	Disk   float64
}

// DefaultThresholds mirror the values the compliance audit was calibrated to.
func DefaultThresholds() Thresholds {
	return Thresholds{CPU: 85, Memory: 90, Disk: 80}
}

// Check is a single threshold comparison inside a compliance report.
type Check struct {
	Check     string `json:"check"`
	Value     string `json:"value"`
	Threshold string `json:"threshold"`
	Status    string `json:"status"`
}

// Report is the outcome of one compliance run.
type Report struct {
	ReportTime time.Time `json:"report_time"`
	Score      string    `json:"score"`
	Overall    string    `json:"overall"`
	Checks     []Check   `json:"checks"`
}

// Evaluator derives compliance verdicts from metric snapshots.
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator builds an Evaluator, falling back to the default thresholds for
// any unset value.
func NewEvaluator(thresholds Thresholds) *Evaluator {
	defaults := DefaultThresholds()
	if thresholds.CPU <= 0 {
		thresholds.CPU = defaults.CPU
	}
	if thresholds.Memory <= 0 {
		thresholds.Memory = defaults.Memory
	}
	if thresholds.Disk <= 0 {
		thresholds.Disk = defaults.Disk
	}
	return &Evaluator{thresholds: thresholds}
}

// Evaluate grades a snapshot against the thresholds.
func (e *Evaluator) Evaluate(snap Snapshot) Report {
	checks := []Check{
		newCheck("CPU Usage", snap.CPUPercent, e.thresholds.CPU),
		newCheck("Memory Usage", snap.MemoryPercent, e.thresholds.Memory),
		newCheck("Disk Usage", snap.DiskPercent, e.thresholds.Disk),
	}

	passed := 0
	for _, check := range checks {
		if check.Status == StatusPass {
			passed++
		}
	}

	overall := VerdictNonCompliant
	if passed == len(checks) {
		overall = VerdictCompliant
	}

	return Report{
		ReportTime: time.Now(),
		Score:      fmt.Sprintf("%d/%d", passed, len(checks)),
		Overall:    overall,
		Checks:     checks,
	}
}

// Run collects a fresh snapshot from the provider and evaluates it.
func (e *Evaluator) Run(ctx context.Context, provider Provider) (Report, error) {
	snap, err := provider.Snapshot(ctx)
	if err != nil {
		return Report{}, err
	}
	return e.Evaluate(snap), nil
}

func newCheck(name string, value, threshold float64) Check {
	status := StatusFail
	if value < threshold {
		status = StatusPass
	}
	return Check{
		Check:     name,
		Value:     fmt.Sprintf("%.1f%%", value),
		Threshold: fmt.Sprintf("%.0f%%", threshold),
		Status:    status,
	}
}
