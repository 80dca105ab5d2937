package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalpt/legal-rag-be/database"
	"github.com/legalpt/legal-rag-be/service"
	"github.com/legalpt/legal-rag-be/types"
)

type DocumentHandler struct {
	store   database.DocumentStore
	answers *service.AnswerService
}

func NewDocumentHandler(store database.DocumentStore, answers *service.AnswerService) *DocumentHandler {
	return &DocumentHandler{
		store:   store,
		answers: answers,
	}
}

func (h *DocumentHandler) HandleGetDocument(c *gin.Context) {
	doc, err := h.store.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, doc)
}

func (h *DocumentHandler) HandleDeleteDocument(c *gin.Context) {
	if err := h.store.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, nil)
}

func (h *DocumentHandler) HandleStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, stats)
}

func (h *DocumentHandler) HandleAnalyzeContract(c *gin.Context) {
	var req types.AnalyzeContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}
	if req.DocumentID == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "document_id is required",
		})
		return
	}

	analysis, err := h.answers.AnalyzeContract(c.Request.Context(), &req)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, analysis)
}
