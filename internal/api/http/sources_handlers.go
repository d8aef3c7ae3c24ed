package http

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/shared/utils"
)

// SourceSummary is one row of the sources table
type SourceSummary struct {
	Name           string         `json:"name"`
	Lang           string         `json:"lang"`
	BaseURL        string         `json:"base_url"`
	Status         health.Overall `json:"status"`
	TotalSelectors int            `json:"total_selectors"`
	Passed         int            `json:"passed"`
	Failed         int            `json:"failed"`
	Warnings       int            `json:"warnings"`
	Skipped        int            `json:"skipped"`
	FetchErrors    int            `json:"fetch_errors"`
	Timestamp      time.Time      `json:"timestamp"`
}

func summarize(r health.SourceValidationResult) SourceSummary {
	return SourceSummary{
		Name:           r.SourceName,
		Lang:           r.Lang,
		BaseURL:        r.BaseURL,
		Status:         r.OverallStatus,
		TotalSelectors: r.TotalSelectors,
		Passed:         r.Passed,
		Failed:         r.Failed,
		Warnings:       r.Warnings,
		Skipped:        r.Skipped,
		FetchErrors:    len(r.FetchErrors),
		Timestamp:      r.Timestamp,
	}
}

// ListSources lists every source in the report, optionally filtered by
// ?status= and ?lang=
func (h *Handlers) ListSources(c *gin.Context) {
	status := health.Overall(strings.ToLower(c.Query("status")))
	lang := c.Query("lang")

	if err := utils.ValidateLang(lang); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.RLock()
	sources := make([]SourceSummary, 0, len(h.report.Sources))
	for _, r := range h.report.Sources {
		if status != "" && r.OverallStatus != status {
			continue
		}
		if lang != "" && r.Lang != lang {
			continue
		}
		sources = append(sources, summarize(r))
	}
	h.mu.RUnlock()

	sort.Slice(sources, func(i, j int) bool {
		return strings.ToLower(sources[i].Name) < strings.ToLower(sources[j].Name)
	})

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}

// GetSource returns the full result of one source
func (h *Handlers) GetSource(c *gin.Context) {
	name := c.Param("name")

	if err := utils.ValidateSourceName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.RLock()
	res, ok := h.report.Find(name)
	h.mu.RUnlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not in report: " + name})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ValidateSource re-validates one source now and folds the result into
// the report
func (h *Handlers) ValidateSource(c *gin.Context) {
	name := c.Param("name")
	lang := c.Query("lang")

	if err := utils.ValidateSourceName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateLang(lang); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	defs, err := h.pipeline.Sources(ctx, name, lang)
	if errors.Is(err, catalog.ErrSourceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	res := h.pipeline.Validate(ctx, defs[0])

	h.mu.Lock()
	h.report.Upsert(res)
	var writeErr error
	if h.reportPath != "" {
		writeErr = h.report.Write(h.reportPath)
	}
	h.mu.Unlock()

	if writeErr != nil {
		h.logger.Error("failed to persist report", zap.String("path", h.reportPath), zap.Error(writeErr))
	}
	h.logger.Info("source revalidated",
		zap.String("source", res.SourceName),
		zap.String("status", string(res.OverallStatus)),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":   writeErr == nil,
		"persisted": h.reportPath != "" && writeErr == nil,
		"result":    res,
	})
}
