package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/pipeline"
	"github.com/tkshop/catalog-service/internal/runs"
)

// ImportRequest is the JSON body of POST /internal/import.
// At least one URL or inline document is required. Options fields left out keep the server defaults.
type ImportRequest struct {
	URLs      []string          `json:"urls,omitempty" binding:"omitempty,dive,url"`
	Documents []string          `json:"documents,omitempty"`
	Options   *importer.Options `json:"options,omitempty"`
}

// ImportQuery overrides default options for raw XML uploads
type ImportQuery struct {
	UpdateExisting    *bool  `form:"updateExisting"`
	SkipInvalid       *bool  `form:"skipInvalid"`
	CreateAllVariants *bool  `form:"createAllVariants"`
	Pricing           string `form:"pricing"`
	Name              string `form:"name"`
}

// ImportStartedResponse represents the 202 response when an import is started
type ImportStartedResponse struct {
	RunID   string `json:"runId" jsonschema:"required"`
	Status  string `json:"status" jsonschema:"required"`
	PollURL string `json:"pollUrl" jsonschema:"required"`
	Message string `json:"message,omitempty"`
}

// StartImport triggers an import asynchronously.
// POST /internal/import
// The body is either a raw WXR document (any XML content type), a ZIP of WXR documents,
// or an ImportRequest.
// Returns 202 Accepted immediately with runId and pollUrl, 409 while another import runs.
func (h *Handler) StartImport(c *gin.Context) {
	sources, opts, err := h.parseImport(c)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if err := opts.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.runner.Submit(c.Request.Context(), runs.TriggerAPI, sources, opts)
	if err != nil {
		if pipeline.IsLocked(err) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("Failed to start import")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to start import: %v", err)})
		return
	}

	c.JSON(http.StatusAccepted, ImportStartedResponse{
		RunID:   rec.ID,
		Status:  string(rec.Status),
		PollURL: "/internal/runs/" + rec.ID,
		Message: fmt.Sprintf("Import started for %d document(s)", len(sources)),
	})
}

func (h *Handler) parseImport(c *gin.Context) ([]pipeline.Source, importer.Options, error) {
	opts := h.cfg.Defaults
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes)

	if isXML(c.ContentType()) || c.ContentType() == "application/zip" {
		var q ImportQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			return nil, opts, err
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, opts, err
		}
		if len(body) == 0 {
			return nil, opts, errors.New("empty request body")
		}
		applyQuery(&opts, q)
		name := q.Name
		if name == "" {
			name = "upload.xml"
			if c.ContentType() == "application/zip" {
				name = "upload.zip"
			}
		}
		return []pipeline.Source{{Name: name, Body: body}}, opts, nil
	}

	// decoding over a copy only overwrites the option fields the client sent
	merged := opts.Clone()
	req := ImportRequest{Options: &merged}
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, opts, err
	}
	if len(req.URLs) == 0 && len(req.Documents) == 0 {
		return nil, opts, errors.New("urls or documents is required")
	}
	if req.Options != nil {
		opts = *req.Options
	}

	sources := make([]pipeline.Source, 0, len(req.Documents)+len(req.URLs))
	for i, doc := range req.Documents {
		sources = append(sources, pipeline.Source{Name: fmt.Sprintf("document-%d.xml", i+1), Body: []byte(doc)})
	}
	for _, url := range req.URLs {
		sources = append(sources, pipeline.Source{URL: url})
	}
	return sources, opts, nil
}

func applyQuery(opts *importer.Options, q ImportQuery) {
	if q.UpdateExisting != nil {
		opts.UpdateExisting = *q.UpdateExisting
	}
	if q.SkipInvalid != nil {
		opts.SkipInvalid = *q.SkipInvalid
	}
	if q.CreateAllVariants != nil {
		opts.CreateAllVariants = *q.CreateAllVariants
	}
	if q.Pricing != "" {
		opts.Pricing = q.Pricing
	}
}

func isXML(contentType string) bool {
	return strings.HasSuffix(contentType, "/xml") || strings.HasSuffix(contentType, "+xml")
}
