package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/stride/apps/backend/internal/service"
	"github.com/vcscsvcscs/stride/apps/backend/pkg/model"
	"go.uber.org/zap"
)

// FitnessDataPointRequest is one data point reported by the device
type FitnessDataPointRequest struct {
	Date         string  `json:"date" binding:"required"`
	DataType     string  `json:"data_type" binding:"required"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	Source       string  `json:"source"`
	SourceDataID string  `json:"source_data_id"`
}

// SyncStepsRequest is the body of POST /api/v1/steps/sync
type SyncStepsRequest struct {
	DataPoints []FitnessDataPointRequest `json:"data_points" binding:"required,dive"`
}

// DailyGoalRequest is the body of PUT /api/v1/steps/goal
type DailyGoalRequest struct {
	DailyGoal int `json:"daily_goal" binding:"required"`
}

// StepHandler implements step API endpoints
type StepHandler struct {
	service *service.StepService
	logger  *zap.Logger
}

// NewStepHandler creates a new StepHandler
func NewStepHandler(service *service.StepService, logger *zap.Logger) *StepHandler {
	return &StepHandler{
		service: service,
		logger:  logger,
	}
}

// PostSync syncs fitness data points and reports newly achieved milestones
func (h *StepHandler) PostSync(c *gin.Context) {
	var req SyncStepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "Invalid request body", err)
		return
	}

	points := make([]model.FitnessDataPoint, 0, len(req.DataPoints))
	for i, p := range req.DataPoints {
		date, err := parseDate(p.Date)
		if err != nil {
			badRequest(c, h.logger, fmt.Sprintf("Invalid date in data point %d", i), err)
			return
		}
		points = append(points, model.FitnessDataPoint{
			Date:         date,
			DataType:     p.DataType,
			Value:        p.Value,
			Unit:         p.Unit,
			Source:       p.Source,
			SourceDataID: p.SourceDataID,
		})
	}

	result, err := h.service.SyncSteps(c.Request.Context(), userID(c), points)
	if err != nil {
		respondError(c, h.logger, err, "Failed to sync steps")
		return
	}

	h.logger.Info("steps synced",
		zap.String("user_id", userID(c)),
		zap.Int("synced_count", result.Synced),
		zap.Int("milestones", len(result.Milestones)),
	)

	c.JSON(http.StatusOK, result)
}

// GetStats returns the caller's step statistics
func (h *StepHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get step stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// PutGoal sets the caller's daily step goal
func (h *StepHandler) PutGoal(c *gin.Context) {
	var req DailyGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "Invalid request body", err)
		return
	}

	result, err := h.service.SetDailyGoal(c.Request.Context(), userID(c), req.DailyGoal)
	if err != nil {
		respondError(c, h.logger, err, "Failed to set daily goal")
		return
	}

	c.JSON(http.StatusOK, result)
}
