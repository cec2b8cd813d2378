package backups

import (
	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, limiter *shared.RateLimiter) {
	controller := NewController(service)

	admin := router.Group("/admin", shared.RequireRole(types.RoleAdmin), limiter.Middleware(shared.LimitAdmin))
	admin.GET("/backups", controller.List)
	admin.POST("/backups", controller.Run)
	admin.POST("/backups/upload", controller.Upload)
	admin.GET("/emergency-backup", controller.EmergencyInfo)
	admin.POST("/emergency-backup", controller.EmergencyUpdate)
	admin.GET("/emergency-backup/download", controller.EmergencyDownload)
}
