package socialaudit

import (
	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, limiter *shared.RateLimiter) {
	controller := NewController(service)

	admin := router.Group("/admin/social-audit", shared.RequireRole(types.RoleAdmin), limiter.Middleware(shared.LimitAdmin))
	admin.POST("", controller.Scan)
	admin.GET("", controller.List)
	admin.GET("/export", controller.Export)
}
