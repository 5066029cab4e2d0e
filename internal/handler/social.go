package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/stride/apps/backend/internal/service"
	"go.uber.org/zap"
)

// SocialHandler implements friendship and group API endpoints
type SocialHandler struct {
	service *service.SocialService
	logger  *zap.Logger
}

// NewSocialHandler creates a new SocialHandler
func NewSocialHandler(service *service.SocialService, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{
		service: service,
		logger:  logger,
	}
}

// PostAcceptFriend accepts a friend request from :friendId
func (h *SocialHandler) PostAcceptFriend(c *gin.Context) {
	result, err := h.service.AcceptFriend(c.Request.Context(), userID(c), c.Param("friendId"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to accept friend")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// PostJoinGroup adds the caller to :groupId
func (h *SocialHandler) PostJoinGroup(c *gin.Context) {
	result, err := h.service.JoinGroup(c.Request.Context(), userID(c), c.Param("groupId"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to join group")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}
