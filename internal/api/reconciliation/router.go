package reconciliation

import (
	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, limiter *shared.RateLimiter) {
	controller := NewController(service)

	admin := router.Group("/admin/priority", shared.RequireRole(types.RoleAdmin), limiter.Middleware(shared.LimitAdmin))
	admin.GET("/reconciliation", controller.Report)
	admin.PATCH("/sync/:orderId", controller.UpdateSync)
}
