package monitorapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"soxmonitor/internal/domain/monitor"
	platformerrors "soxmonitor/internal/platform/errors"
	"soxmonitor/internal/platform/logging"
	httptransport "soxmonitor/internal/transport/http"
)

// Service exposes the monitoring and compliance endpoints.
type Service struct {
	provider  monitor.Provider
	evaluator *monitor.Evaluator
	logger    *logging.Logger
}

// NewService creates the monitoring HTTP service.
func NewService(provider monitor.Provider, evaluator *monitor.Evaluator, logger *logging.Logger) (*Service, error) {
	if provider == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "monitorapi.new", "metrics provider is required")
	}
	if evaluator == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "monitorapi.new", "compliance evaluator is required")
	}
	if logger == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "monitorapi.new", "logger is required")
	}
	return &Service{
		provider:  provider,
		evaluator: evaluator,
		logger:    logger,
	}, nil
}

// Register wires the open routes onto the engine and the metric routes onto
// the secured group. Every metric handler runs behind session resolution.
func (s *Service) Register(_ context.Context, engine *gin.Engine, secured *gin.RouterGroup) error {
	engine.GET("/", s.handleHome)
	engine.GET("/health", s.handleHealth)

	secured.GET("/system-info", s.handleSystemInfo)
	secured.GET("/cpu", s.handleCPU)
	secured.GET("/memory", s.handleMemory)
	secured.GET("/disk", s.handleDisk)
	secured.GET("/metrics", s.handleMetrics)
	secured.GET("/compliance", s.handleCompliance)

	s.logger.InfoTag("HTTP", "monitoring routes registered")
	return nil
}

func (s *Service) handleHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to SOX Compliance Monitor API",
	})
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Service) handleSystemInfo(c *gin.Context) {
	info, err := s.provider.Host(c.Request.Context())
	if err != nil {
		s.failCollect(c, "system info", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hostname":     info.Hostname,
		"platform":     info.Platform,
		"go_version":   info.GoVersion,
		"requested_by": requestedBy(c),
	})
}

func (s *Service) handleCPU(c *gin.Context) {
	status, err := s.provider.CPU(c.Request.Context())
	if err != nil {
		s.failCollect(c, "cpu", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cpu_percent":  status.Percent,
		"cpu_cores":    status.Cores,
		"requested_by": requestedBy(c),
	})
}

func (s *Service) handleMemory(c *gin.Context) {
	status, err := s.provider.Memory(c.Request.Context())
	if err != nil {
		s.failCollect(c, "memory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"memory_percent": status.Percent,
		"total_gb":       status.TotalGB,
		"used_gb":        status.UsedGB,
		"free_gb":        status.FreeGB,
		"requested_by":   requestedBy(c),
	})
}

func (s *Service) handleDisk(c *gin.Context) {
	status, err := s.provider.Disk(c.Request.Context())
	if err != nil {
		s.failCollect(c, "disk", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"disk_percent": status.Percent,
		"total_gb":     status.TotalGB,
		"used_gb":      status.UsedGB,
		"free_gb":      status.FreeGB,
		"requested_by": requestedBy(c),
	})
}

func (s *Service) handleMetrics(c *gin.Context) {
	snap, err := s.provider.Snapshot(c.Request.Context())
	if err != nil {
		s.failCollect(c, "metrics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp":      snap.Timestamp.Format(time.RFC3339),
		"hostname":       snap.Hostname,
		"cpu_percent":    snap.CPUPercent,
		"memory_percent": snap.MemoryPercent,
		"disk_percent":   snap.DiskPercent,
		"requested_by":   requestedBy(c),
	})
}

func (s *Service) handleCompliance(c *gin.Context) {
	report, err := s.evaluator.Run(c.Request.Context(), s.provider)
	if err != nil {
		s.failCollect(c, "compliance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report_time":  report.ReportTime.Format(time.RFC3339),
		"score":        report.Score,
		"overall":      report.Overall,
		"checks":       report.Checks,
		"requested_by": requestedBy(c),
	})
}

func (s *Service) failCollect(c *gin.Context, what string, err error) {
	s.logger.ErrorTag("MONITOR", "%s collection failed: %v", what, err)
	httptransport.RespondError(c, http.StatusInternalServerError, "Failed to collect "+what)
}

func requestedBy(c *gin.Context) string {
	sess, ok := httptransport.SessionFromContext(c)
	if !ok {
		return ""
	}
	return sess.Username
}
