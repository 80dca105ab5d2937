package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalpt/legal-rag-be/scraper"
	"github.com/legalpt/legal-rag-be/service"
	"github.com/legalpt/legal-rag-be/types"
)

type IngestHandler struct {
	ingest   *service.IngestService
	browseAI *scraper.BrowseAIClient
	robotID  string
}

// NewIngestHandler wires the ingestion pipeline. browseAI may be nil when
// no scraper credentials are configured; the scrape endpoint then returns
// an error.
func NewIngestHandler(ingest *service.IngestService, browseAI *scraper.BrowseAIClient, robotID string) *IngestHandler {
	return &IngestHandler{
		ingest:   ingest,
		browseAI: browseAI,
		robotID:  robotID,
	}
}

func (h *IngestHandler) HandleIngest(c *gin.Context) {
	var req types.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}

	result := h.ingest.Ingest(c.Request.Context(), req)
	sendSuccess(c, result)
}

func (h *IngestHandler) HandleIngestBatch(c *gin.Context) {
	var req types.BatchIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}
	if len(req.Documents) == 0 {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "No documents provided",
		})
		return
	}

	results := h.ingest.IngestBatch(c.Request.Context(), req)
	sendSuccess(c, results)
}

// HandleReprocess re-chunks and re-embeds a stored document in place.
func (h *IngestHandler) HandleReprocess(c *gin.Context) {
	result, err := h.ingest.Reprocess(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, result)
}

type scrapeRequest struct {
	RobotID      string `json:"robot_id,omitempty"`
	DaysBack     int    `json:"days_back,omitempty"`
	MaxDocuments int    `json:"max_documents,omitempty"`
	Force        bool   `json:"force,omitempty"`
}

// HandleScrape runs the Browse AI robot and ingests whatever it captured
// in one request. Long; intended for operator use.
func (h *IngestHandler) HandleScrape(c *gin.Context) {
	if h.browseAI == nil {
		c.JSON(http.StatusServiceUnavailable, types.DataResponse{
			Status:  "error",
			Message: "Scraper is not configured",
		})
		return
	}

	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}
	robotID := req.RobotID
	if robotID == "" {
		robotID = h.robotID
	}
	if robotID == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "No robot id configured",
		})
		return
	}
	if req.DaysBack <= 0 {
		req.DaysBack = 7
	}
	if req.MaxDocuments <= 0 {
		req.MaxDocuments = 100
	}

	docs, err := h.browseAI.ScrapeRecentDocuments(c.Request.Context(), robotID, req.DaysBack, req.MaxDocuments)
	if err != nil {
		sendError(c, err)
		return
	}

	results := h.ingest.IngestBatch(c.Request.Context(), types.BatchIngestRequest{
		Documents: docs,
		Force:     req.Force,
	})
	sendSuccess(c, results)
}
