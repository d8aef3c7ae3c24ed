package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
)

// Pipeline is the part of the application the dashboard drives.
type Pipeline interface {
	Sources(ctx context.Context, name, lang string) ([]*catalog.SourceDefinition, error)
	Validate(ctx context.Context, def *catalog.SourceDefinition) health.SourceValidationResult
}

// Handlers serves the health report and on-demand validation.
type Handlers struct {
	pipeline Pipeline
	logger   *zap.Logger

	mu         sync.RWMutex
	report     *health.Report
	reportPath string
}

// NewHandlers creates the dashboard handlers around an already loaded
// report. Re-validated sources are written back to reportPath when it is
// set.
func NewHandlers(pipeline Pipeline, report *health.Report, reportPath string, logger *zap.Logger) *Handlers {
	if report == nil {
		report = health.NewReport(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{pipeline: pipeline, report: report, reportPath: reportPath, logger: logger}
}

// Healthz handles liveness checks
func (h *Handlers) Healthz(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "sourcehealth",
		"run_id":  h.report.RunID,
		"sources": h.report.TotalSources,
	})
}

// GetReport returns the full health report
func (h *Handlers) GetReport(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c.JSON(http.StatusOK, h.report)
}
