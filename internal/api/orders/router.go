package orders

import (
	"github.com/gin-gonic/gin"

	"github.com/vipogroup/vipo-api/internal/shared"
	"github.com/vipogroup/vipo-api/internal/types"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, limiter *shared.RateLimiter) {
	controller := NewController(service)

	group := router.Group("/orders", shared.RequireAuth())
	group.POST("", limiter.Middleware(shared.LimitOrderCreate), controller.Create)
	group.GET("", limiter.Middleware(shared.LimitOrderList), controller.List)
	group.GET("/:id", controller.Get)

	admin := router.Group("/admin/orders", shared.RequireRole(types.RoleAdmin), limiter.Middleware(shared.LimitAdmin))
	admin.PATCH("/:id", controller.UpdateStatus)
}
