package withdrawals

import (
	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, limiter *shared.RateLimiter) {
	controller := NewController(service)

	agent := router.Group("/withdrawals", shared.RequireRole(types.RoleAgent), limiter.Middleware(shared.LimitWithdrawals))
	agent.POST("", controller.Create)
	agent.GET("", controller.ListMine)

	admin := router.Group("/admin/withdrawals", shared.RequireRole(types.RoleAdmin), limiter.Middleware(shared.LimitAdmin))
	admin.GET("", controller.AdminList)
	admin.GET("/:id", controller.Get)
	admin.PATCH("/:id", controller.Process)
}
