package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalpt/legal-rag-be/service"
	"github.com/legalpt/legal-rag-be/types"
)

type QueryHandler struct {
	answers   *service.AnswerService
	retrieval *service.RetrievalService
}

func NewQueryHandler(answers *service.AnswerService, retrieval *service.RetrievalService) *QueryHandler {
	return &QueryHandler{
		answers:   answers,
		retrieval: retrieval,
	}
}

// HandleQuery answers a natural-language question with cited sources.
func (h *QueryHandler) HandleQuery(c *gin.Context) {
	var req types.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}

	resp, err := h.answers.AnswerQuery(c.Request.Context(), &req)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSearch returns matching chunks without LLM processing.
func (h *QueryHandler) HandleSearch(c *gin.Context) {
	var req types.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}

	hits, err := h.retrieval.Search(c.Request.Context(), &req)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, hits)
}
