package handler

import "github.com/gin-gonic/gin"

// Routes groups the handlers served by the API
type Routes struct {
	Steps        *StepHandler
	Social       *SocialHandler
	Achievements *AchievementHandler
	Health       *HealthHandler
}

// RegisterRoutes mounts the API on r. apiMiddleware runs only for /api/v1 routes.
func RegisterRoutes(r *gin.Engine, routes Routes, apiMiddleware ...gin.HandlerFunc) {
	if routes.Health != nil {
		r.GET("/health", routes.Health.GetHealth)
	}

	api := r.Group("/api/v1", apiMiddleware...)

	steps := api.Group("/steps")
	steps.POST("/sync", routes.Steps.PostSync)
	steps.GET("/stats", routes.Steps.GetStats)
	steps.PUT("/goal", routes.Steps.PutGoal)

	api.POST("/friends/:friendId/accept", routes.Social.PostAcceptFriend)
	api.POST("/groups/:groupId/join", routes.Social.PostJoinGroup)

	achievements := api.Group("/achievements")
	achievements.GET("", routes.Achievements.List)
	achievements.GET("/:milestoneId", routes.Achievements.Get)
	achievements.DELETE("/:milestoneId", routes.Achievements.Delete)
}
