package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/stride/apps/backend/internal/service"
	"go.uber.org/zap"
)

// AchievementHandler implements achievement API endpoints
type AchievementHandler struct {
	service *service.AchievementService
	logger  *zap.Logger
}

// NewAchievementHandler creates a new AchievementHandler
func NewAchievementHandler(service *service.AchievementService, logger *zap.Logger) *AchievementHandler {
	return &AchievementHandler{
		service: service,
		logger:  logger,
	}
}

// List returns every achievement the caller holds
func (h *AchievementHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to list achievements")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"achievements": list,
		"count":        len(list),
	})
}

// Get reports whether the caller holds :milestoneId
func (h *AchievementHandler) Get(c *gin.Context) {
	status, err := h.service.IsAchieved(c.Request.Context(), userID(c), c.Param("milestoneId"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get achievement")
		return
	}

	c.JSON(http.StatusOK, status)
}

// Delete resets :milestoneId for the caller
func (h *AchievementHandler) Delete(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context(), userID(c), c.Param("milestoneId")); err != nil {
		respondError(c, h.logger, err, "Failed to reset achievement")
		return
	}

	c.Status(http.StatusNoContent)
}
