package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkshop/catalog-service/internal/report"
	"github.com/tkshop/catalog-service/internal/runs"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListRunsRequest represents query parameters for listing import runs
type ListRunsRequest struct {
	Limit  int `form:"limit" json:"limit" binding:"omitempty,min=1,max=100" jsonschema:"minimum=1,maximum=100"`
	Offset int `form:"offset" json:"offset" binding:"omitempty,min=0" jsonschema:"minimum=0"`
}

// ListRunsResponse represents the response for listing import runs
type ListRunsResponse struct {
	Runs  []runs.Record `json:"runs" jsonschema:"required"`
	Total int           `json:"total" jsonschema:"required"`
}

// ListRuns returns a paginated list of import runs, newest first
// GET /internal/runs
func (h *Handler) ListRuns(c *gin.Context) {
	var req ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	records, total, err := h.runner.Runs().List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}
	if records == nil {
		records = []runs.Record{}
	}
	c.JSON(http.StatusOK, ListRunsResponse{Runs: records, Total: total})
}

// GetRun returns one run with its result once finished
// GET /internal/runs/:runId
func (h *Handler) GetRun(c *gin.Context) {
	rec, ok := h.lookupRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetRunReport returns the run as an XLSX workbook
// GET /internal/runs/:runId/report
func (h *Handler) GetRunReport(c *gin.Context) {
	rec, ok := h.lookupRun(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, rec.ID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) lookupRun(c *gin.Context) (*runs.Record, bool) {
	runID := c.Param("runId")
	rec, err := h.runner.Runs().Get(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Run not found: %s", runID)})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to lookup run"})
		return nil, false
	}
	return rec, true
}
