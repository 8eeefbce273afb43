package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codechat/internal/dto"
	"codechat/internal/errs"
	"codechat/internal/service"
	"codechat/pkg/logger"
	"codechat/pkg/response"
)

// PatternHandler serves pattern analysis, suggestions and feedback.
type PatternHandler struct {
	patternService service.PatternService
	logger         logger.Logger
}

// NewPatternHandler creates a pattern handler.
func NewPatternHandler(patternService service.PatternService, logger logger.Logger) *PatternHandler {
	return &PatternHandler{
		patternService: patternService,
		logger:         logger,
	}
}

// AnalyzeCode detects and stores patterns in submitted source
// @Summary Analyze code for patterns
// @Accept json
// @Produce json
// @Router /api/v1/patterns/analyze [post]
func (h *PatternHandler) AnalyzeCode(c *gin.Context) {
	var req dto.AnalyzeCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request format: %v", err)
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	patterns, err := h.patternService.AnalyzeCode(c, req.Code, req.Language, req.Context)
	if err != nil {
		h.logger.Error("analyze code err: %v", err)
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	response.OkJson(c, patterns)
}

// SuggestPatterns ranks stored patterns for a working context
// @Summary Suggest patterns
// @Accept json
// @Produce json
// @Router /api/v1/patterns/suggest [post]
func (h *PatternHandler) SuggestPatterns(c *gin.Context) {
	var req dto.SuggestPatternsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request format: %v", err)
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	ranked, err := h.patternService.GenerateSuggestions(c, service.SuggestionContext{
		Context:      req.Context,
		Language:     req.Language,
		Code:         req.Code,
		Dependencies: req.Dependencies,
		Complexity:   req.Complexity,
		Tags:         req.Tags,
		ContextData:  req.ContextData,
	})
	if err != nil {
		h.logger.Error("generate suggestions err: %v", err)
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	items := make([]dto.PatternSuggestionItem, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, dto.PatternSuggestionItem{
			SuggestionID:   r.Suggestion.ID,
			PatternID:      r.Pattern.ID,
			Name:           r.Pattern.Name,
			Description:    r.Pattern.Description,
			Language:       r.Pattern.Language,
			Example:        r.Pattern.Example,
			Tags:           r.Pattern.Tags,
			Confidence:     r.Suggestion.Confidence,
			RelevanceScore: r.Suggestion.RelevanceScore,
		})
	}

	response.OkJson(c, items)
}

// RecordUsage stores feedback for a previously issued suggestion
// @Summary Record suggestion feedback
// @Accept json
// @Produce json
// @Router /api/v1/patterns/usage [post]
func (h *PatternHandler) RecordUsage(c *gin.Context) {
	var req dto.PatternUsageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request format: %v", err)
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	err := h.patternService.ProcessFeedback(c, req.SuggestionID, service.SuggestionFeedback{
		Accepted:       req.Accepted,
		Feedback:       req.Feedback,
		UserResponse:   req.UserResponse,
		ResponseTimeMs: req.ResponseTimeMs,
	})
	if err != nil {
		if errs.IsNotFound(err) {
			response.Error(c, http.StatusNotFound, err)
			return
		}
		h.logger.Error("process feedback err: %v", err)
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	response.Ok(c)
}
