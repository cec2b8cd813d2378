package commissions

import (
	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, limiter *shared.RateLimiter, cronSecret string) {
	controller := NewController(service, cronSecret)

	router.GET("/agent/commissions", shared.RequireRole(types.RoleAgent, types.RoleAdmin), controller.Summary)
	router.POST("/cron/release-commissions", controller.RequireCronSecret, controller.Release)

	admin := router.Group("/admin", shared.RequireRole(types.RoleAdmin), limiter.Middleware(shared.LimitAdmin))
	admin.POST("/commissions/release", controller.Release)
	admin.GET("/agents", controller.ListAgents)
	admin.PATCH("/agents/:id", controller.UpdateAgent)
}
