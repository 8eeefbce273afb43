package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codechat/internal/dto"
	"codechat/internal/service"
	"codechat/pkg/logger"
	"codechat/pkg/response"
)

// indexRunTimeout bounds a background index run.
const indexRunTimeout = 30 * time.Minute

// IndexHandler triggers codebase index runs.
type IndexHandler struct {
	indexerService service.IndexerService
	logger         logger.Logger
}

// NewIndexHandler creates an index handler.
func NewIndexHandler(indexerService service.IndexerService, logger logger.Logger) *IndexHandler {
	return &IndexHandler{
		indexerService: indexerService,
		logger:         logger,
	}
}

// TriggerIndex starts a background index run over a directory
// @Summary Trigger index run
// @Accept json
// @Produce json
// @Router /api/v1/index [post]
func (h *IndexHandler) TriggerIndex(c *gin.Context) {
	var req dto.IndexReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request format: %v", err)
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	runID := uuid.NewString()
	h.logger.Info("index run %s accepted for %s", runID, req.RootDir)

	// The run outlives the request; completion lands in the logs and
	// metrics rather than this response.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexRunTimeout)
		defer cancel()

		report, err := h.indexerService.IndexCodebase(ctx, req.RootDir)
		if err != nil {
			h.logger.Error("index run %s failed: %v", runID, err)
			return
		}
		h.logger.Info("index run %s finished: %d indexed, %d skipped, %d failed",
			runID, report.Indexed, report.Skipped, report.Failed)
	}()

	c.JSON(http.StatusAccepted, response.Response[gin.H]{
		Code:    response.CodeOK,
		Message: "accepted",
		Success: true,
		Data:    gin.H{"runId": runID},
	})
}
