package assist

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatx-backend/internal/service/assist"
	"chatx-backend/pkg/logger"
	"chatx-backend/pkg/response"
)

// Handler handles HTTP requests for text assistance (summarize, translate)
type Handler struct {
	assistService *assist.Service
}

// NewHandler creates a new assist handler
func NewHandler(assistService *assist.Service) *Handler {
	return &Handler{
		assistService: assistService,
	}
}

// SummarizeRequest represents summarize request body
type SummarizeRequest struct {
	Text string `json:"text" binding:"required"`
}

// TranslateRequest represents translate request body
type TranslateRequest struct {
	Text           string `json:"text" binding:"required"`
	TargetLanguage string `json:"targetLanguage" binding:"required"`
}

// Summarize handles text summarization
// POST /summarize
func (h *Handler) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	summary, err := h.assistService.Summarize(c.Request.Context(), req.Text)
	if err != nil {
		logger.Error("summarization failed", zap.Error(err))
		response.UpstreamError(c, "Summarization service unavailable")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"summary": summary,
	})
}

// Translate handles text translation
// POST /translate
func (h *Handler) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	translation, err := h.assistService.Translate(c.Request.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		logger.Error("translation failed",
			zap.String("target_language", req.TargetLanguage),
			zap.Error(err))
		response.UpstreamError(c, "Translation service unavailable")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"translation": translation,
	})
}
